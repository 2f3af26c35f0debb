// Package report renders experiment data: PNG figures through gonum/plot,
// terminal charts through asciigraph and a styled fit summary.
package report

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/cstrsim/internal/experiment"
	"github.com/san-kum/cstrsim/internal/storage"
)

type Series struct {
	Name   string
	Values []float64
}

// Panel is one chart: several series over a shared time axis.
type Panel struct {
	Title string
	Label string
	Times []float64
	// Series[0] is the reference; the rest are overlaid on it.
	Series []Series
}

var (
	inputLabels  = []string{"F [m^3/min]", "W [kg/min]", "Ca_in [kg/m^3]", "T_in [degC]"}
	inputNames   = []string{"F", "W", "Ca_in", "T_in"}
	outputLabels = []string{"Ca [kg/m^3]", "T [degC]"}
	outputNames  = []string{"Ca", "T"}
)

func InputPanels(ds *experiment.Dataset) []Panel {
	panels := make([]Panel, len(inputNames))
	for i := range inputNames {
		panels[i] = Panel{
			Title:  "identification inputs: " + inputNames[i],
			Label:  inputLabels[i],
			Times:  ds.Times,
			Series: []Series{{Name: inputNames[i], Values: mat.Row(nil, i, ds.U)}},
		}
	}
	return panels
}

// OutputPanels overlays every fitted model on the measured outputs.
func OutputPanels(ds *experiment.Dataset, fits []experiment.Fit) []Panel {
	panels := make([]Panel, len(outputNames))
	for i := range outputNames {
		series := []Series{{Name: "Data", Values: mat.Row(nil, i, ds.Y)}}
		for _, f := range fits {
			series = append(series, Series{Name: f.Method, Values: mat.Row(nil, i, f.Yid)})
		}
		panels[i] = Panel{
			Title:  "identification outputs: " + outputNames[i],
			Label:  outputLabels[i],
			Times:  ds.Times,
			Series: series,
		}
	}
	return panels
}

// TablePanels rebuilds input and output panels from a stored dataset.
func TablePanels(t *storage.Table, methods []string) (inputs, outputs []Panel, err error) {
	times := t.Column("time")
	if times == nil {
		return nil, nil, fmt.Errorf("report: dataset has no time column")
	}

	for i, name := range inputNames {
		vals := t.Column(name)
		if vals == nil {
			return nil, nil, fmt.Errorf("report: dataset has no %s column", name)
		}
		inputs = append(inputs, Panel{
			Title:  "identification inputs: " + name,
			Label:  inputLabels[i],
			Times:  times,
			Series: []Series{{Name: name, Values: vals}},
		})
	}

	for i, name := range outputNames {
		meas := t.Column(name + "_meas")
		if meas == nil {
			return nil, nil, fmt.Errorf("report: dataset has no %s_meas column", name)
		}
		series := []Series{{Name: "Data", Values: meas}}
		for _, m := range methods {
			if vals := t.Column(m + "_" + name); vals != nil {
				series = append(series, Series{Name: m, Values: vals})
			}
		}
		outputs = append(outputs, Panel{
			Title:  "identification outputs: " + name,
			Label:  outputLabels[i],
			Times:  times,
			Series: series,
		})
	}
	return inputs, outputs, nil
}
