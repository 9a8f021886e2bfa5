package config

import (
	flag "github.com/spf13/pflag"

	"github.com/iotaledger/hive.go/app/configuration"
	"github.com/iotaledger/hive.go/ierrors"
)

// LoadClientType reads the "client" section of a JSON config file. Missing values keep their defaults.
func LoadClientType(filePath string) (ClientType, error) {
	params := &ParametersClient{}
	if err := loadConfigFile(filePath, map[string]any{"client": params}); err != nil {
		return ClientType{}, err
	}

	return ClientTypeFromParameters(params)
}

func loadConfigFile(filePath string, parameters map[string]any) error {
	config := configuration.New()
	flagset := configuration.NewUnsortedFlagSet("", flag.ContinueOnError)

	for namespace, pointerToStruct := range parameters {
		config.BindParameters(flagset, namespace, pointerToStruct)
	}

	if err := config.LoadFile(filePath); err != nil {
		return ierrors.Wrapf(err, "loading config file %s failed", filePath)
	}

	// keys missing in the file are filled from the flag defaults
	if err := config.LoadFlagSet(flagset); err != nil {
		return ierrors.Wrap(err, "loading default values failed")
	}

	config.UpdateBoundParameters()

	return nil
}
