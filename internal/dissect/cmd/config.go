package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
)

// Config is the optional JSON configuration file. Flags given on the
// command line override its values.
type Config struct {
	Arch     string `json:"arch,omitempty" jsonschema:"title=Architecture,description=Default architecture for raw input,enum=arm,enum=arm64,enum=mips,enum=x86,enum=ppc"`
	Mode     string `json:"mode,omitempty" jsonschema:"title=Mode,description=Comma separated mode flags such as 64 or thumb or be"`
	Syntax   string `json:"syntax,omitempty" jsonschema:"title=Syntax,description=Operand syntax,enum=default,enum=intel,enum=att,enum=noregname"`
	Detail   bool   `json:"detail,omitempty" jsonschema:"title=Detail,description=Record implicit registers and groups and operands"`
	SkipData bool   `json:"skipData,omitempty" jsonschema:"title=Skip Data,description=Emit .byte records for undecodable bytes and keep going"`
	NoColor  bool   `json:"noColor,omitempty" jsonschema:"title=No Color,description=Disable syntax highlighting"`
	Debug    bool   `json:"debug,omitempty" jsonschema:"title=Debug,description=Enable debug logging"`
	LogFile  string `json:"logFile,omitempty" jsonschema:"title=Log File,description=Write logs to this file instead of stderr"`
}

// LoadConfig reads path, or $DISSECT_CONFIG when path is empty. No file
// at all yields the zero config.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	explicit := path != ""
	if !explicit {
		path = os.Getenv("DISSECT_CONFIG")
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// stringFlag returns the flag value when it was set, the config value
// otherwise.
func stringFlag(cmd *cobra.Command, name, fromConfig string) string {
	v, _ := cmd.Flags().GetString(name)
	if cmd.Flags().Changed(name) || fromConfig == "" {
		return v
	}
	return fromConfig
}

func boolFlag(cmd *cobra.Command, name string, fromConfig bool) bool {
	v, _ := cmd.Flags().GetBool(name)
	if cmd.Flags().Changed(name) {
		return v
	}
	return v || fromConfig
}
