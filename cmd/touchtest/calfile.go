package main

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	"resistouch.org/touch"
)

const calibrationVersion = 1

type calibrationFile struct {
	Version      int        `cbor:"1,keyasint"`
	Coefficients [8]float64 `cbor:"2,keyasint"`
}

func loadCalibration(path string) (touch.Calibration, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return touch.Calibration{}, err
	}
	var f calibrationFile
	if err := cbor.Unmarshal(b, &f); err != nil {
		return touch.Calibration{}, fmt.Errorf("%s: %w", path, err)
	}
	if f.Version != calibrationVersion {
		return touch.Calibration{}, fmt.Errorf("%s: unknown calibration version %d", path, f.Version)
	}
	return touch.Calibration(f.Coefficients), nil
}

func saveCalibration(path string, c touch.Calibration) error {
	b, err := cbor.Marshal(calibrationFile{
		Version:      calibrationVersion,
		Coefficients: c,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return os.WriteFile(path, b, 0o640)
}
