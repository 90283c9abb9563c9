package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable named in Config's env tags.
const EnvPrefix = "GOPHLOCKER_"

// parseEnv overlays GOPHLOCKER_* variables from environ onto config. PORT
// and FRONTEND_URLS are honoured too, for hosting platforms that set them,
// unless the prefixed variable is also present.
func parseEnv(config *Config, environ []string) error {
	vars := env.ToMap(environ)

	if err := env.ParseWithOptions(config, env.Options{
		Prefix:      EnvPrefix,
		Environment: vars,
	}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if port := strings.TrimSpace(vars["PORT"]); port != "" && vars[EnvPrefix+"HTTP_ADDR"] == "" {
		config.HTTPAddr = ":" + port
	}

	if urls := vars["FRONTEND_URLS"]; urls != "" && vars[EnvPrefix+"ALLOWED_ORIGINS"] == "" {
		var origins []string
		for _, u := range strings.Split(urls, ",") {
			if u = strings.TrimSpace(u); u != "" {
				origins = append(origins, u)
			}
		}
		if len(origins) > 0 {
			config.AllowedOrigins = origins
		}
	}
	return nil
}
