package review

import (
	"encoding/json"
	"os"
)

// DumpToTmpFile writes items as indented JSON to a new temp file and returns
// its name.
func DumpToTmpFile(items []*Item) (string, error) {
	file, err := os.CreateTemp("", "drafts_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByCompany counts items per posting company.
func ReportByCompany(items []*Item) map[string]int {
	report := make(map[string]int)
	for _, item := range items {
		company := "unknown"
		if item.Match.Posting != nil && item.Match.Posting.Company != "" {
			company = item.Match.Posting.Company
		}
		report[company]++
	}
	return report
}
