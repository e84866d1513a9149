package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/MaiMahmoud182/DSP-task-1/internal/api"
	"github.com/MaiMahmoud182/DSP-task-1/internal/upload"
)

// Drone display labels.
const (
	FieldPrediction = "Prediction"
	FieldDroneScore = "Drone"
	FieldBirdScore  = "Bird"
	FieldNoiseScore = "Noise"
	FieldTopClass   = "Top class"
	FieldFileType   = "File type"
	FieldFileSize   = "File size"
)

// Drone drives the drone detection page.
type Drone struct {
	*FileAnalyzer[api.DroneDetection]

	deps Deps
}

// NewDrone returns a Drone controller.
func NewDrone(deps Deps) *Drone {
	d := &Drone{deps: deps}
	d.FileAnalyzer = NewFileAnalyzer("drone", upload.DronePolicy, NewDisplay(
		Field{Label: FieldPrediction, Placeholder: PlaceholderText},
		Field{Label: FieldDroneScore, Placeholder: PlaceholderPct},
		Field{Label: FieldBirdScore, Placeholder: PlaceholderPct},
		Field{Label: FieldNoiseScore, Placeholder: PlaceholderPct},
		Field{Label: FieldTopClass, Placeholder: PlaceholderText},
		Field{Label: FieldFileType, Placeholder: PlaceholderText},
		Field{Label: FieldFileSize, Placeholder: PlaceholderText},
	), d.detect, presentDrone, deps)
	return d
}

// Detect classifies the selected clip.
func (d *Drone) Detect(ctx context.Context) (api.DroneDetection, error) {
	return d.Analyze(ctx)
}

func (d *Drone) detect(ctx context.Context, file api.FilePart) (api.DroneDetection, error) {
	return d.deps.Client.DetectDrone(ctx, file)
}

// Classes lists the label groups the classifier reports.
func (d *Drone) Classes(ctx context.Context) (api.DroneClasses, error) {
	out, err := d.deps.Client.DroneClasses(ctx)
	if err != nil {
		logFailure(d.deps.logger(), "drone", "classes", err)
	}
	return out, err
}

func presentDrone(d *Display, r api.DroneDetection) string {
	d.Set(FieldPrediction, strings.ToUpper(r.Prediction))
	for label, key := range map[string]string{
		FieldDroneScore: "drone",
		FieldBirdScore:  "bird",
		FieldNoiseScore: "noise",
	} {
		if score, ok := r.ConfidenceScores[key]; ok {
			d.Set(label, fmt.Sprintf("%.1f%%", score*100))
		}
	}
	if len(r.TopClasses) > 0 {
		top := r.TopClasses[0]
		d.Set(FieldTopClass, fmt.Sprintf("%s (%.1f%%)", top.Name, top.Score*100))
	}
	if r.AudioInfo.FileType != "" {
		d.Set(FieldFileType, r.AudioInfo.FileType)
	}
	if r.AudioInfo.FileSize != "" {
		d.Set(FieldFileSize, r.AudioInfo.FileSize)
	}
	return fmt.Sprintf("%s (drone %.0f%%)", strings.ToUpper(r.Prediction), r.ConfidenceScores["drone"]*100)
}
