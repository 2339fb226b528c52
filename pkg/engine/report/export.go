package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/inventory"
	"github.com/idiya2016/cloud-resource-archaeologist/pkg/version"
)

// JSONReport is the machine-readable projection of a DiscoveryResult. It is
// exported so downstream consumers can unmarshal the file back into a typed
// structure.
type JSONReport struct {
	Metadata        JSONMetadata                 `json:"metadata"`
	Summary         map[string]int               `json:"summary"`
	CostSummary     JSONCostSummary              `json:"cost_summary"`
	Resources       map[string][]inventory.Entry `json:"resources"`
	Failures        []inventory.ScopeError       `json:"failures,omitempty"`
	Recommendations Recommendations              `json:"recommendations"`
}

type JSONMetadata struct {
	GeneratedOn time.Time `json:"generated_on"`
	StartedAt   time.Time `json:"started_at"`
	Version     string    `json:"version"`
	Partial     bool      `json:"partial"`
}

type JSONCostSummary struct {
	Families map[string]float64 `json:"families"`
	Total    float64            `json:"total"`
}

// BuildJSON assembles the JSON projection without serializing it.
func BuildJSON(result *inventory.DiscoveryResult) JSONReport {
	rep := JSONReport{
		Metadata: JSONMetadata{
			GeneratedOn: result.FinishedAt.UTC(),
			StartedAt:   result.StartedAt.UTC(),
			Version:     version.Current,
			Partial:     result.Partial,
		},
		Summary:     make(map[string]int, len(inventory.AllFamilies())),
		CostSummary: JSONCostSummary{Families: make(map[string]float64), Total: result.Summary.Total},
		Resources:   make(map[string][]inventory.Entry, len(inventory.AllFamilies())),
		Failures:    result.Failures,
	}
	for _, f := range inventory.AllFamilies() {
		rep.Summary[f.String()] = result.Summary.Families[f].Count
		rep.CostSummary.Families[f.String()] = result.Summary.Families[f].MonthlyCost
		entries := result.Entries[f]
		if entries == nil {
			entries = []inventory.Entry{}
		}
		rep.Resources[f.String()] = entries
	}
	rep.Recommendations = recommend(result)
	return rep
}

func writeJSON(result *inventory.DiscoveryResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(BuildJSON(result)); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	return nil
}

var csvHeader = []string{
	"record", "family", "region", "id", "name", "subtype",
	"state", "size_gb", "hourly_cost", "monthly_cost",
}

// writeCSV emits one row per resource, cost-descending, followed by summary
// and failure rows so a single file carries the whole scan.
func writeCSV(result *inventory.DiscoveryResult, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	entries := result.AllEntries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].MonthlyCost > entries[j].MonthlyCost
	})
	for _, e := range entries {
		if err := cw.Write(csvRow(e)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	for _, f := range inventory.AllFamilies() {
		total := result.Summary.Families[f]
		row := []string{
			"SUMMARY", f.String(), "", "", "", "", "",
			fmt.Sprintf("%d", total.Count), "",
			fmt.Sprintf("%.4f", total.MonthlyCost),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv summary: %w", err)
		}
	}
	totalRow := []string{
		"SUMMARY", "total", "", "", "", "",
		"", fmt.Sprintf("%d", result.TotalCount()), "",
		fmt.Sprintf("%.4f", result.Summary.Total),
	}
	if err := cw.Write(totalRow); err != nil {
		return fmt.Errorf("write csv total: %w", err)
	}

	for _, fail := range result.Failures {
		row := []string{
			"FAILURE", fail.Family.String(), fail.Region, "", "", "",
			string(fail.Kind), "", "", "",
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv failure: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvRow(e inventory.Entry) []string {
	var subtype, state, sizeGB, hourly string
	switch {
	case e.Compute != nil:
		subtype = e.Compute.InstanceClass
		state = e.Compute.State
	case e.Volume != nil:
		subtype = e.Volume.Subtype
		state = e.Volume.State
		sizeGB = fmt.Sprintf("%d", e.Volume.SizeGB)
	case e.Bucket != nil:
		subtype = e.Bucket.StorageClass
		if e.Bucket.SizeKnown {
			sizeGB = fmt.Sprintf("%.4f", e.Bucket.SizeGB)
		}
	case e.Address != nil:
		if e.Address.Associated {
			state = "associated"
		} else {
			state = "unassociated"
		}
	case e.Snapshot != nil:
		state = e.Snapshot.State
		sizeGB = fmt.Sprintf("%d", e.Snapshot.SizeGB)
	}
	if e.HourlyCost != nil {
		hourly = fmt.Sprintf("%.4f", *e.HourlyCost)
	}
	return []string{
		"RESOURCE", e.Family.String(), e.Region, e.ID, e.Name,
		subtype, state, sizeGB, hourly,
		fmt.Sprintf("%.4f", e.MonthlyCost),
	}
}
