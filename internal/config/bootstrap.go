package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"punkdir/internal/privilege"
)

// BootstrapConfig maps account emails to tiers granted at first login, so a
// fresh deployment has working admin and god accounts without manual SQL.
type BootstrapConfig struct {
	Accounts []BootstrapAccount `yaml:"accounts"`
}

// BootstrapAccount grants one email address an account tier.
type BootstrapAccount struct {
	Email string `yaml:"email"`
	Tier  int    `yaml:"tier"` // 0=user, 1=admin, 2=god
}

// LoadBootstrap loads the YAML bootstrap file. Path is determined by the
// BOOTSTRAP_FILE env var, defaulting to "bootstrap.yaml". Returns nil
// without error if the file doesn't exist.
func LoadBootstrap() (*BootstrapConfig, error) {
	path := getEnv("BOOTSTRAP_FILE", "bootstrap.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Bootstrap file is optional
			return nil, nil
		}
		return nil, err
	}

	var cfg BootstrapConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// TierForEmail returns the bootstrapped tier for an email, if any.
func (c *BootstrapConfig) TierForEmail(email string) (privilege.Tier, bool) {
	if c == nil {
		return privilege.User, false
	}
	for _, a := range c.Accounts {
		if a.Email == email {
			if t, err := privilege.Parse(a.Tier); err == nil {
				return t, true
			}
		}
	}
	return privilege.User, false
}
