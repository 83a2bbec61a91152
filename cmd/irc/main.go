// Command irc drives the IR compiler from the command line: it generates
// random source circuits, compiles them, prints statistics and solves
// witnesses.
package main

import (
	"fmt"
	"os"

	"github.com/PolyhedraZK/ExpanderIRCompiler/field"
	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	fieldName string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "irc",
	Short: "compile arithmetic circuit IR into layered circuits",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		logger.Set(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
			Level(level).With().Timestamp().Logger())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&fieldName, "field", "m31", "field of the circuit: m31, bn254, goldilocks, gf2 or babybear")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every compilation stage")
}

func selectedField() (field.Field, error) {
	return field.GetFieldByName(fieldName)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
