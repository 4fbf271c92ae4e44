package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/danieljhkim/reorg/internal/config"
)

const envErrorPrefix = "error mapping environment variables to command flags"

// checkEnvironmentVariables fills every flag the user did not set from
// REORG_<COMMAND>_<FLAG>, with dashes in the flag name turned into
// underscores. Slice flags take a comma separated value.
func checkEnvironmentVariables(command *cobra.Command) error {
	var errs []string
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvPrefix(fmt.Sprintf("%s_%s", config.EnvPrefix, command.Name()))
	command.Flags().VisitAll(func(f *pflag.Flag) {
		configName := strings.ReplaceAll(f.Name, "-", "_")
		if !f.Changed && v.IsSet(configName) {
			val := v.Get(configName)
			if err := command.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				errs = append(errs, err.Error())
			}
		}
	})

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %s", envErrorPrefix, strings.Join(errs, "; "))
}
