package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/renolab/planscan/pkg/models"
)

// Summarize derives the one-sentence summary and the ordered warning list
// from a classified element sequence. Warnings appear in a fixed order
// (load-bearing, then plumbing, then high-risk); a category with count
// zero emits no warning.
func Summarize(meta models.FloorPlanMeta, elems []models.StructuralElement) (string, []string) {
	var wallCount, loadBearingCount, plumbingCount, highRiskCount int
	for _, e := range elems {
		if strings.Contains(string(e.Role), "wall") {
			wallCount++
		}
		if e.Role == models.RoleLoadBearingWall {
			loadBearingCount++
		}
		if e.Role == models.RolePlumbing {
			plumbingCount++
		}
		if e.Risk.Severity() >= models.RiskHigh.Severity() {
			highRiskCount++
		}
	}

	floorType := meta.FloorType
	if floorType == "" {
		floorType = "일반"
	}

	summary := fmt.Sprintf(
		"%s 도면에서 총 %d개의 구조 요소를 감지했습니다 (벽체 %d개, 내력벽 %d개(추정), 배관 설비 %d개).",
		floorType, len(elems), wallCount, loadBearingCount, plumbingCount)

	warnings := make([]string, 0, 3)
	if loadBearingCount > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"내력벽 %d개가 포함되어 있습니다. 철거 전 구조 안전 진단이 필요합니다.", loadBearingCount))
	}
	if plumbingCount > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"배관 설비 %d개가 감지되었습니다. 이설 시 배관 공사 비용이 추가될 수 있습니다.", plumbingCount))
	}
	if highRiskCount > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"고위험 요소가 %d개 있습니다. 시공 전 전문가 상담을 권장합니다.", highRiskCount))
	}

	return summary, warnings
}

// Analyze runs classification and summarization over one parse result and
// assembles the analysis document. Metadata counts are taken from the
// upstream parser, not recomputed from the classified elements.
func Analyze(floorPlanID uuid.UUID, res models.DwgParseResult) *models.FloorPlanAnalysis {
	elems := Classify(res)
	summary, warnings := Summarize(res.Meta, elems)

	return &models.FloorPlanAnalysis{
		ID:            uuid.New(),
		FloorPlanID:   floorPlanID,
		ImageWidth:    res.Meta.ImageWidth,
		ImageHeight:   res.Meta.ImageHeight,
		EstimatedArea: res.Meta.EstimatedArea,
		RoomCount:     res.Meta.RoomCount,
		BathroomCount: res.Meta.BathroomCount,
		Elements:      elems,
		Summary:       summary,
		Warnings:      warnings,
		CreatedAt:     time.Now().UTC(),
	}
}
