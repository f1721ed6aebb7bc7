package config

import (
	"time"

	"github.com/dmitrijs2005/contactkeeper/internal/flagx"
	"github.com/dmitrijs2005/contactkeeper/internal/timex"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// parseEnv loads an optional dotenv file (-env-file) into the process
// environment and then overlays every Config field whose env variable is set.
// Variables already present in the environment win over the file.
func parseEnv(config *Config, args []string) error {
	if path := flagx.EnvFile(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			return err
		}
	}

	if err := cleanenv.ReadEnv(config); err != nil {
		return err
	}
	return parseEnvDurations(config)
}

// envDurations carries the duration variables, which accept either plain
// seconds ("3600") or a Go duration string ("1h").
type envDurations struct {
	AccessTTL   timex.EnvDuration `env:"JWT_EXPIRATION"`
	RefreshTTL  timex.EnvDuration `env:"JWT_REFRESH_EXPIRATION"`
	LoginWindow timex.EnvDuration `env:"LOGIN_ATTEMPT_WINDOW"`
}

func parseEnvDurations(config *Config) error {
	d := envDurations{
		AccessTTL:   timex.EnvDuration(config.AccessTokenValidityDuration),
		RefreshTTL:  timex.EnvDuration(config.RefreshTokenValidityDuration),
		LoginWindow: timex.EnvDuration(config.LoginAttemptWindow),
	}
	if err := cleanenv.ReadEnv(&d); err != nil {
		return err
	}
	config.AccessTokenValidityDuration = time.Duration(d.AccessTTL)
	config.RefreshTokenValidityDuration = time.Duration(d.RefreshTTL)
	config.LoginAttemptWindow = time.Duration(d.LoginWindow)
	return nil
}
