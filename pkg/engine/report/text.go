package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/idiya2016/cloud-resource-archaeologist/pkg/engine/inventory"
)

const (
	rule      = "================================================================================"
	thinRule  = "--------------------"
	timeStamp = "2006-01-02 15:04:05"
)

// writeText renders the sectioned operator report. Timestamps come from the
// result itself so the same DiscoveryResult always renders identically.
func writeText(result *inventory.DiscoveryResult, w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw, "CLOUD RESOURCE ARCHAEOLOGIST REPORT")
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "Generated on: %s\n", result.FinishedAt.UTC().Format(timeStamp))
	fmt.Fprintf(bw, "Scan window:  %s -> %s\n",
		result.StartedAt.UTC().Format(timeStamp), result.FinishedAt.UTC().Format(timeStamp))
	if result.Partial {
		fmt.Fprintf(bw, "Status:       PARTIAL (%d failed scopes)\n", len(result.Failures))
	} else {
		fmt.Fprintln(bw, "Status:       COMPLETE")
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "SUMMARY")
	fmt.Fprintln(bw, thinRule)
	for _, f := range inventory.AllFamilies() {
		fmt.Fprintf(bw, "  %s: %d\n", f.Label(), result.Summary.Families[f].Count)
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "COST SUMMARY")
	fmt.Fprintln(bw, thinRule)
	for _, f := range inventory.AllFamilies() {
		fmt.Fprintf(bw, "%s Monthly Cost: $%.2f\n", f.Label(), result.Summary.Families[f].MonthlyCost)
	}
	fmt.Fprintf(bw, "TOTAL Monthly Cost: $%.2f\n", result.Summary.Total)
	fmt.Fprintln(bw)

	if result.TotalCount() == 0 {
		fmt.Fprintln(bw, "No resources found.")
		fmt.Fprintln(bw)
	} else {
		writeFamilySections(result, bw)
	}

	if len(result.Failures) > 0 {
		fmt.Fprintln(bw, "PARTIAL FAILURES")
		fmt.Fprintln(bw, thinRule)
		for _, f := range result.Failures {
			fmt.Fprintf(bw, "%s [%s] %s\n", f.Scope(), f.Kind, f.Message)
		}
		fmt.Fprintln(bw)
	}

	writeRecommendations(result, bw)

	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw, "END OF REPORT")
	fmt.Fprintln(bw, rule)
	return bw.Flush()
}

func writeFamilySections(result *inventory.DiscoveryResult, w io.Writer) {
	if entries := result.Entries[inventory.FamilyCompute]; len(entries) > 0 {
		fmt.Fprintln(w, "EC2 INSTANCES")
		fmt.Fprintln(w, thinRule)
		fmt.Fprintf(w, "%-20s %-12s %-10s %-15s %-14s %s\n", "Instance ID", "Class", "State", "Region", "Monthly Cost", "Name")
		for _, e := range entries {
			fmt.Fprintf(w, "%-20s %-12s %-10s %-15s $%-13.2f %s\n",
				e.ID, e.Compute.InstanceClass, e.Compute.State, e.Region, e.MonthlyCost, e.Name)
		}
		fmt.Fprintln(w)
	}

	if entries := result.Entries[inventory.FamilyBlockVolume]; len(entries) > 0 {
		fmt.Fprintln(w, "EBS VOLUMES")
		fmt.Fprintln(w, thinRule)
		fmt.Fprintf(w, "%-22s %-8s %-10s %-10s %-15s %-14s %s\n", "Volume ID", "Type", "Size (GB)", "State", "Region", "Monthly Cost", "Name")
		for _, e := range entries {
			fmt.Fprintf(w, "%-22s %-8s %-10d %-10s %-15s $%-13.2f %s\n",
				e.ID, e.Volume.Subtype, e.Volume.SizeGB, e.Volume.State, e.Region, e.MonthlyCost, e.Name)
		}
		fmt.Fprintln(w)
	}

	if entries := result.Entries[inventory.FamilyObjectStore]; len(entries) > 0 {
		fmt.Fprintln(w, "S3 BUCKETS")
		fmt.Fprintln(w, thinRule)
		fmt.Fprintf(w, "%-30s %-15s %-12s %s\n", "Bucket Name", "Region", "Size (GB)", "Monthly Cost")
		for _, e := range entries {
			size := fmt.Sprintf("%.2f", e.Bucket.SizeGB)
			if !e.Bucket.SizeKnown {
				size = "unknown"
			}
			fmt.Fprintf(w, "%-30s %-15s %-12s $%.2f\n", e.ID, e.Region, size, e.MonthlyCost)
		}
		fmt.Fprintln(w)
	}

	if entries := result.Entries[inventory.FamilyReservedAddress]; len(entries) > 0 {
		fmt.Fprintln(w, "ELASTIC IPS")
		fmt.Fprintln(w, thinRule)
		fmt.Fprintf(w, "%-18s %-15s %-12s %s\n", "Public IP", "Region", "Associated", "Monthly Cost")
		for _, e := range entries {
			associated := "No"
			if e.Address.Associated {
				associated = "Yes"
			}
			fmt.Fprintf(w, "%-18s %-15s %-12s $%.2f\n", e.Address.PublicIP, e.Region, associated, e.MonthlyCost)
		}
		fmt.Fprintln(w)
	}

	if entries := result.Entries[inventory.FamilySnapshot]; len(entries) > 0 {
		fmt.Fprintln(w, "SNAPSHOTS")
		fmt.Fprintln(w, thinRule)
		fmt.Fprintf(w, "%-24s %-22s %-10s %-10s %-15s %s\n", "Snapshot ID", "Source Volume", "State", "Size (GB)", "Region", "Monthly Cost")
		for _, e := range entries {
			fmt.Fprintf(w, "%-24s %-22s %-10s %-10d %-15s $%.2f\n",
				e.ID, e.Snapshot.SourceVolumeID, e.Snapshot.State, e.Snapshot.SizeGB, e.Region, e.MonthlyCost)
		}
		fmt.Fprintln(w)
	}
}

func writeRecommendations(result *inventory.DiscoveryResult, w io.Writer) {
	rec := recommend(result)

	fmt.Fprintln(w, "RECOMMENDATIONS")
	fmt.Fprintln(w, thinRule)

	clean := true
	if rec.StoppedInstances > 0 {
		fmt.Fprintf(w, "[WARNING] Found %d stopped EC2 instances that may still be costing money\n", rec.StoppedInstances)
		clean = false
	}
	if rec.UnattachedVolumes > 0 {
		fmt.Fprintf(w, "[WARNING] Found %d unattached EBS volumes that may still be costing money\n", rec.UnattachedVolumes)
		clean = false
	}
	if rec.UnassociatedAddresses > 0 {
		fmt.Fprintf(w, "[WARNING] Found %d unassociated Elastic IPs that are incurring charges\n", rec.UnassociatedAddresses)
		clean = false
	}
	if clean {
		fmt.Fprintln(w, "No obviously unused resources found")
	}
	fmt.Fprintln(w)
}
