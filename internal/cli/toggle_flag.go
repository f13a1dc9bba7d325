package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	toggleFlagTypeName       = "bool"
	toggleFlagImplicitValue  = "true"
	toggleFlagAcceptedValues = "true, false, yes, no, on, off, 1, 0"
	invalidToggleValueError  = "invalid boolean value %q for --%s; accepted values: %s"
	flagArgumentTerminator   = "--"
	longFlagPrefix           = "--"
	flagValueSeparator       = "="
)

var toggleLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// toggleValue is a boolean flag that also accepts yes/no and on/off literals,
// so configuration defaults can be switched off with "--tokens no".
type toggleValue struct {
	target *bool
	name   string
}

func (value *toggleValue) Set(input string) error {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		normalized = toggleFlagImplicitValue
	}
	parsed, ok := toggleLiterals[normalized]
	if !ok {
		return fmt.Errorf(invalidToggleValueError, input, value.name, toggleFlagAcceptedValues)
	}
	*value.target = parsed
	return nil
}

func (value *toggleValue) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *toggleValue) Type() string {
	return toggleFlagTypeName
}

// addToggleFlag registers a toggle defaulting to false. An empty shorthand
// registers the long form only.
func addToggleFlag(flagSet *pflag.FlagSet, target *bool, name, shorthand, usage string) {
	*target = false
	flagSet.VarP(&toggleValue{target: target, name: name}, name, shorthand, usage)
	registered := flagSet.Lookup(name)
	registered.DefValue = strconv.FormatBool(false)
	registered.NoOptDefVal = toggleFlagImplicitValue
}

// joinToggleArguments rewrites "--flag value" into "--flag=value" for toggle
// flags followed by a boolean literal. pflag would otherwise treat the
// literal as a positional argument.
func joinToggleArguments(command *cobra.Command, arguments []string) []string {
	toggles := map[string]struct{}{}
	collectToggleNames(command, toggles)
	if len(toggles) == 0 {
		return arguments
	}
	joined := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		argument := arguments[index]
		if argument == flagArgumentTerminator {
			joined = append(joined, arguments[index:]...)
			break
		}
		if strings.HasPrefix(argument, longFlagPrefix) && !strings.Contains(argument, flagValueSeparator) && index+1 < len(arguments) {
			name := strings.TrimPrefix(argument, longFlagPrefix)
			literal := strings.ToLower(strings.TrimSpace(arguments[index+1]))
			if _, isToggle := toggles[name]; isToggle {
				if _, isLiteral := toggleLiterals[literal]; isLiteral {
					joined = append(joined, argument+flagValueSeparator+arguments[index+1])
					index++
					continue
				}
			}
		}
		joined = append(joined, argument)
	}
	return joined
}

func collectToggleNames(command *cobra.Command, target map[string]struct{}) {
	visit := func(flag *pflag.Flag) {
		if _, isToggle := flag.Value.(*toggleValue); isToggle {
			target[flag.Name] = struct{}{}
		}
	}
	command.PersistentFlags().VisitAll(visit)
	command.Flags().VisitAll(visit)
	for _, child := range command.Commands() {
		collectToggleNames(child, target)
	}
}
