package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Stage identifies one of the five ordered pipeline phases.
type Stage int

const (
	StageDiscovery Stage = iota + 1
	StageDetail
	StageAnalysis
	StageTailoring
	StageRescoring
)

var stageNames = map[Stage]string{
	StageDiscovery: "discovery",
	StageDetail:    "detail",
	StageAnalysis:  "analysis",
	StageTailoring: "tailoring",
	StageRescoring: "rescoring",
}

// Stages returns the five stages in pipeline order.
func Stages() []Stage {
	return []Stage{StageDiscovery, StageDetail, StageAnalysis, StageTailoring, StageRescoring}
}

// ParseStage accepts a stage name or its ordinal ("1".."5").
func ParseStage(value string) (Stage, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for stage, name := range stageNames {
		if v == name {
			return stage, nil
		}
	}
	if n, err := strconv.Atoi(v); err == nil {
		stage := Stage(n)
		if stage.Valid() {
			return stage, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q (expected discovery, detail, analysis, tailoring, rescoring or 1-5)", value)
}

// Valid reports whether s is one of the five defined stages.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}
