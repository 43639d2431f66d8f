// Package risk maps detection categories to severity levels and orders
// detections for presentation.
package risk

import (
	"sort"
	"strings"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/types"
)

// Bucket binds a severity to the category keys that select it. A category
// belongs to a bucket when any key is a substring of the category name.
type Bucket struct {
	Level types.RiskLevel
	Keys  []string
}

// Buckets is evaluated top-down and the first match wins, so precedence is
// fixed by slice order rather than map iteration.
var Buckets = []Bucket{
	{Level: types.RiskCritical, Keys: []string{"ejecucion_remota_critica", "inyeccion_dll", "manipulacion_memoria"}},
	{Level: types.RiskHigh, Keys: []string{"conexiones_http_sospechosas", "acceso_archivos_critico", "comandos_administrativos_sospechosos"}},
	{Level: types.RiskMedium, Keys: []string{"codigo_altamente_ofuscado", "acceso_archivos_medio"}},
	{Level: types.RiskLow, Keys: []string{"comandos_sospechosos_menores"}},
	{Level: types.RiskInfo, Keys: []string{"debug_info", "comentarios_sospechosos"}},
}

// Default is returned for categories no bucket claims.
const Default = types.RiskMedium

// Classify returns the severity for a category name.
func Classify(category string) types.RiskLevel {
	for _, b := range Buckets {
		for _, k := range b.Keys {
			if strings.Contains(category, k) {
				return b.Level
			}
		}
	}
	return Default
}

// AtLeast reports whether lvl is as severe as min or more.
func AtLeast(lvl, min types.RiskLevel) bool { return lvl >= min }

// Max returns the most severe level among ds, or RiskInfo for an empty slice.
func Max(ds []types.Detection) types.RiskLevel {
	out := types.RiskInfo
	for _, d := range ds {
		if d.RiskLevel > out {
			out = d.RiskLevel
		}
	}
	return out
}

// CountByLevel tallies detections per risk level.
func CountByLevel(ds []types.Detection) map[types.RiskLevel]int {
	out := make(map[types.RiskLevel]int, len(types.RiskLevels))
	for _, d := range ds {
		out[d.RiskLevel]++
	}
	return out
}

// FileGroup holds the detections of one file.
type FileGroup struct {
	File       string
	MaxRisk    types.RiskLevel
	Detections []types.Detection
}

// GroupByFile groups detections per file. Files are ordered by their most
// severe detection, then by path; detections inside a file by severity,
// then line number.
func GroupByFile(ds []types.Detection) []FileGroup {
	idx := map[string]int{}
	var groups []FileGroup
	for _, d := range ds {
		i, ok := idx[d.File]
		if !ok {
			i = len(groups)
			idx[d.File] = i
			groups = append(groups, FileGroup{File: d.File})
		}
		groups[i].Detections = append(groups[i].Detections, d)
	}
	for i := range groups {
		Sort(groups[i].Detections)
		groups[i].MaxRisk = Max(groups[i].Detections)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].MaxRisk != groups[j].MaxRisk {
			return groups[i].MaxRisk > groups[j].MaxRisk
		}
		return groups[i].File < groups[j].File
	})
	return groups
}

// Sort orders detections in place: most severe first, then by file and line.
func Sort(ds []types.Detection) {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		if a.RiskLevel != b.RiskLevel {
			return a.RiskLevel > b.RiskLevel
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.LineNumber < b.LineNumber
	})
}
