// Package report renders a DiscoveryResult into its output formats. All
// renderers are pure projections: nothing here re-derives costs or talks to
// external systems, and rendering never fails because of data content.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/inventory"
)

// Format selects an output representation.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat resolves a CLI format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	}
	return "", &inventory.ConfigError{Field: "format", Value: s, Reason: "expected text, csv, or json"}
}

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	}
	return ".txt"
}

// Render writes the report for result to w in the given format.
func Render(result *inventory.DiscoveryResult, format Format, w io.Writer) error {
	switch format {
	case FormatCSV:
		return writeCSV(result, w)
	case FormatJSON:
		return writeJSON(result, w)
	default:
		return writeText(result, w)
	}
}

// WriteFile renders the report into a file at path.
func WriteFile(result *inventory.DiscoveryResult, format Format, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := Render(result, format, f); err != nil {
		return err
	}
	return f.Close()
}

// Recommendations are derived read-only observations surfaced alongside the
// inventory: resources that are likely paying for nothing.
type Recommendations struct {
	StoppedInstances      int `json:"stopped_instances"`
	UnattachedVolumes     int `json:"unattached_volumes"`
	UnassociatedAddresses int `json:"unassociated_addresses"`
}

func recommend(result *inventory.DiscoveryResult) Recommendations {
	var rec Recommendations
	for _, e := range result.Entries[inventory.FamilyCompute] {
		if e.Compute != nil && e.Compute.State == "stopped" {
			rec.StoppedInstances++
		}
	}
	for _, e := range result.Entries[inventory.FamilyBlockVolume] {
		if e.Volume != nil && e.Volume.State == "available" {
			rec.UnattachedVolumes++
		}
	}
	for _, e := range result.Entries[inventory.FamilyReservedAddress] {
		if e.Address != nil && !e.Address.Associated {
			rec.UnassociatedAddresses++
		}
	}
	return rec
}
