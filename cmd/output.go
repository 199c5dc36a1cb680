package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// writeRecords serializes v as JSON or YAML to outPath, or stdout when
// outPath is empty.
func writeRecords(v any, format, outPath string) error {
	var data []byte
	var err error

	switch format {
	case "", "json":
		data, err = json.MarshalIndent(v, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal json output")
		}
		data = append(data, '\n')
	case "yaml":
		data, err = yaml.Marshal(v)
		if err != nil {
			return eris.Wrap(err, "marshal yaml output")
		}
	default:
		return eris.Errorf("unknown output format %q (want json or yaml)", format)
	}

	if outPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", outPath)
	}
	return nil
}
