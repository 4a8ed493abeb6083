package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	cp "github.com/otiai10/copy"
	"gopkg.in/yaml.v3"
)

var (
	cfgMux   sync.RWMutex
	Atreia   *AtreiaCfg
	Profiles map[string]*HunterCfg
	Version  = "dev"
)

// AtreiaCfg is the process-wide configuration: dashboard, logging and the
// remote notifier integrations. Per-profile hunting settings live in
// HunterCfg.
type AtreiaCfg struct {
	Debug struct {
		Log bool `yaml:"log"`
	} `yaml:"debug"`
	FirstRun         bool   `yaml:"firstRun"`
	LogSaveDirectory string `yaml:"logSaveDirectory"`
	WindowWidth      int    `yaml:"windowWidth"`
	WindowHeight     int    `yaml:"windowHeight"`
	Discord          struct {
		Enabled    bool     `yaml:"enabled"`
		BotAdmins  []string `yaml:"botAdmins"`
		ChannelID  string   `yaml:"channelId"`
		Token      string   `yaml:"token"`
		UseWebhook bool     `yaml:"useWebhook"`
		WebhookURL string   `yaml:"webhookUrl"`
	} `yaml:"discord"`
	Telegram struct {
		Enabled bool   `yaml:"enabled"`
		ChatID  int64  `yaml:"chatId"`
		Token   string `yaml:"token"`
	} `yaml:"telegram"`
	Ngrok struct {
		Enabled       bool   `yaml:"enabled"`
		SendURL       bool   `yaml:"sendUrl"`
		Authtoken     string `yaml:"authtoken"`
		Region        string `yaml:"region"`
		Domain        string `yaml:"domain"`
		BasicAuthUser string `yaml:"basicAuthUser"`
		BasicAuthPass string `yaml:"basicAuthPass"`
	} `yaml:"ngrok"`
}

// Load reads config/atreia.yaml plus every profile directory under config/.
// Each subdirectory with a profile.yaml becomes a hunting profile keyed by
// the directory name. Any invalid profile rejects the whole load.
func Load() error {
	cfgMux.Lock()
	defer cfgMux.Unlock()
	Profiles = make(map[string]*HunterCfg)

	mainPath := getAbsPath("config/atreia.yaml")
	r, err := os.Open(mainPath)
	if err != nil {
		return fmt.Errorf("error loading atreia.yaml: %w", err)
	}
	defer r.Close()

	d := yaml.NewDecoder(r)
	if err = d.Decode(&Atreia); err != nil {
		return fmt.Errorf("error reading config %s: %w", mainPath, err)
	}

	configDir := getAbsPath("config")
	entries, err := os.ReadDir(configDir)
	if err != nil {
		return fmt.Errorf("error reading config directory %s: %w", configDir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		profilePath := getAbsPath(filepath.Join("config", entry.Name(), "profile.yaml"))
		pr, err := os.Open(profilePath)
		if err != nil {
			return fmt.Errorf("error loading profile.yaml: %w", err)
		}

		hunterCfg := HunterCfg{}
		pd := yaml.NewDecoder(pr)
		if err = pd.Decode(&hunterCfg); err != nil {
			_ = pr.Close()
			return fmt.Errorf("error reading %s profile config: %w", profilePath, err)
		}
		_ = pr.Close()

		hunterCfg.ConfigFolderName = entry.Name()
		if err = hunterCfg.Validate(); err != nil {
			return fmt.Errorf("profile %s is invalid: %w", entry.Name(), err)
		}

		Profiles[entry.Name()] = &hunterCfg
	}

	return nil
}

// GetProfiles returns the loaded profiles map. Callers must treat the
// returned configs as read-only.
func GetProfiles() map[string]*HunterCfg {
	cfgMux.RLock()
	defer cfgMux.RUnlock()
	return Profiles
}

// GetProfile returns a single profile by name.
func GetProfile(name string) (*HunterCfg, bool) {
	cfgMux.RLock()
	defer cfgMux.RUnlock()
	cfg, ok := Profiles[name]
	return cfg, ok
}

// CreateFromTemplate scaffolds a new profile directory by copying
// config/template, then reloads the configuration.
func CreateFromTemplate(name string) error {
	if _, exists := Profiles[name]; exists {
		return fmt.Errorf("profile %s already exists", name)
	}

	if err := cp.Copy(getAbsPath("config/template"), getAbsPath("config/"+name)); err != nil {
		return fmt.Errorf("error copying template: %w", err)
	}

	return Load()
}

// SaveProfile writes the given profile back to its profile.yaml and reloads.
func SaveProfile(cfg *HunterCfg) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshalling profile: %w", err)
	}

	path := getAbsPath(filepath.Join("config", cfg.ConfigFolderName, "profile.yaml"))
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing profile %s: %w", path, err)
	}

	return Load()
}

// ValidateAndSaveConfig persists the process-wide configuration.
func ValidateAndSaveConfig(cfg AtreiaCfg) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshalling config: %w", err)
	}

	if err = os.WriteFile(getAbsPath("config/atreia.yaml"), data, 0o644); err != nil {
		return fmt.Errorf("error writing atreia.yaml: %w", err)
	}

	cfgMux.Lock()
	c := cfg
	Atreia = &c
	cfgMux.Unlock()

	return nil
}

func getAbsPath(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	wd, err := os.Getwd()
	if err != nil {
		return rel
	}
	return filepath.Join(wd, rel)
}
