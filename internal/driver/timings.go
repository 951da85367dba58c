package driver

import (
	"encoding/json"
	"fmt"

	"scratchc/internal/diag"
	"scratchc/internal/observ"
)

type timingPayload struct {
	Kind     string               `json:"kind"`
	Path     string               `json:"path,omitempty"`
	CacheHit bool                 `json:"cache_hit"`
	TotalMS  float64              `json:"total_ms"`
	Phases   []observ.PhaseReport `json:"phases"`
}

// appendTimingDiagnostic records the phase timings of res as an info
// diagnostic carrying the JSON report after the summary line.
func appendTimingDiagnostic(bag *diag.Bag, res *Result) {
	if bag == nil || res == nil {
		return
	}
	report := res.Timer.Report()
	payload := timingPayload{
		Kind:     "build",
		Path:     res.Input,
		CacheHit: res.CacheHit,
		TotalMS:  report.TotalMS,
		Phases:   report.Phases,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	entry := diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ProjInfo,
		Message:  fmt.Sprintf("timings (%s): total %.2f ms %s", payload.Kind, payload.TotalMS, data),
		Where:    diag.Location{File: res.Input},
	}
	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(1)
	overflow.Add(entry)
	bag.Merge(overflow)
}
