package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage biasprep configuration",
		Long: `Show, get, or set configuration values. Config is stored in ~/.biasprep.yaml.
Keys are flag names, so a stored value becomes that flag's default.`,
		Example: `  biasprep config                        # show all config
  biasprep config set genome /data/hg38.fa  # default genome for batches
  biasprep config get max-jitter            # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout(), configKeys(cmd.Root()))
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(args[0])
		},
	}
}

func runConfigShow(out io.Writer, keys map[string][]string) error {
	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Fprintln(out, "# No configuration set. Config file: ~/.biasprep.yaml")
	} else {
		data, err := yaml.Marshal(settings)
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		fmt.Fprint(out, string(data))
	}

	fmt.Fprintln(out, "#")
	fmt.Fprintln(out, "# Known keys:")
	for _, name := range slices.Sorted(maps.Keys(keys)) {
		fmt.Fprintf(out, "#   %-12s %s\n", name, strings.Join(keys[name], ", "))
	}
	return nil
}

// configKeys returns the flag names each data command reads through viper,
// which are the keys a config file can set. Help and the config command
// itself are skipped.
func configKeys(root *cobra.Command) map[string][]string {
	keys := make(map[string][]string)
	for _, sub := range root.Commands() {
		if sub.Name() == "config" || sub.Name() == "help" || sub.Name() == "completion" {
			continue
		}
		var names []string
		sub.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Name != "help" {
				names = append(names, f.Name)
			}
		})
		slices.Sort(names)
		keys[sub.Name()] = names
	}
	return keys
}

func runConfigSet(key, value string) error {
	viper.Set(key, parseConfigValue(value))

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		var err error
		if cfgFile, err = defaultConfigPath(); err != nil {
			return err
		}
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

// parseConfigValue stores booleans and integers typed so the YAML file
// reads naturally; everything else is kept as a string.
func parseConfigValue(value string) any {
	switch value {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return value
}

func runConfigGet(key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Println(val)
	return nil
}
