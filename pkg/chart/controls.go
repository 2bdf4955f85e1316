package chart

import (
	"math"

	"github.com/raykavin/chartcore/pkg/layout"
	"github.com/samber/lo"
)

const (
	minToolbarIconSize = 10.0
	toolbarPadding     = 4.0
	toolbarSpacing     = 6.0
)

// PanelControlAction is the effect of a panel toolbar button
type PanelControlAction int

const (
	ControlAddAbove PanelControlAction = iota
	ControlAddBelow
	ControlToggleVisible
	ControlToggleCollapsed
	ControlRemove
)

func (a PanelControlAction) String() string {
	switch a {
	case ControlAddAbove:
		return "add_above"
	case ControlAddBelow:
		return "add_below"
	case ControlToggleVisible:
		return "toggle_visible"
	case ControlToggleCollapsed:
		return "toggle_collapsed"
	default:
		return "remove"
	}
}

// PanelControlHit is one toolbar button and its hit rectangle
type PanelControlHit struct {
	Panel  PanelID
	Action PanelControlAction
	Rect   Rect
}

// panelControls lays out the toolbar buttons of every panel along the right
// price axis. Indicator panels only offer to add a neighbor where their
// group already has one.
func (c *Chart) panelControls(l *layout.ChartLayout) []PanelControlHit {
	iconSize := math.Max(c.options.Style.ToolbarIconSize, minToolbarIconSize)
	width := iconSize + toolbarPadding*2

	var hits []PanelControlHit
	for _, pl := range l.Panels {
		p, ok := c.panel(PanelID(pl.ID))
		if !ok {
			continue
		}

		actions := c.controlActions(l, pl, p)
		height := float64(len(actions))*iconSize + float64(len(actions)-1)*toolbarSpacing
		y := math.Max(pl.Top+(pl.Height-height)/2, pl.Top+toolbarPadding)
		x := math.Max(pl.AxisRight-width-toolbarPadding, pl.PlotRight+toolbarPadding)

		for _, action := range actions {
			hits = append(hits, PanelControlHit{
				Panel:  p.id,
				Action: action,
				Rect:   Rect{X: x, Y: y - toolbarPadding, Width: width, Height: iconSize + toolbarPadding*2},
			})
			y += iconSize + toolbarSpacing
		}
	}
	return hits
}

func (c *Chart) controlActions(l *layout.ChartLayout, pl layout.PanelLayout, p *panel) []PanelControlAction {
	if p.role == layout.RoleMain {
		return []PanelControlAction{ControlAddBelow, ControlToggleVisible, ControlToggleCollapsed}
	}

	group := lo.Filter(l.Panels, func(other layout.PanelLayout, _ int) bool { return other.Group == pl.Group })
	index := lo.IndexOf(lo.Map(group, func(other layout.PanelLayout, _ int) int { return other.ID }), pl.ID)

	var actions []PanelControlAction
	if index > 0 {
		actions = append(actions, ControlAddAbove)
	}
	if index >= 0 && index+1 < len(group) {
		actions = append(actions, ControlAddBelow)
	}
	return append(actions, ControlToggleVisible, ControlToggleCollapsed, ControlRemove)
}

// SetPanelControls stores the toolbar buttons drawn by the last render pass
func (c *Chart) SetPanelControls(hits []PanelControlHit) {
	c.controls = hits
}

// PanelControlAt returns the toolbar button under (x, y)
func (c *Chart) PanelControlAt(x, y float64) (PanelControlHit, bool) {
	return lo.Find(c.controls, func(hit PanelControlHit) bool { return hit.Rect.Contains(x, y) })
}

// ActivatePanelControl runs the toolbar button under (x, y). Add actions
// are returned untouched so the caller can ask which indicator to add.
func (c *Chart) ActivatePanelControl(x, y float64) (PanelControlHit, bool) {
	hit, ok := c.PanelControlAt(x, y)
	if !ok {
		return PanelControlHit{}, false
	}

	var err error
	switch hit.Action {
	case ControlToggleVisible:
		err = c.TogglePanelVisibility(hit.Panel)
	case ControlToggleCollapsed:
		err = c.TogglePanelCollapsed(hit.Panel)
	case ControlRemove:
		if c.rsi != nil && c.rsi.panel == hit.Panel {
			c.ClearRSIPanel()
		} else {
			err = c.RemovePanel(hit.Panel)
		}
		c.controls = lo.Reject(c.controls, func(other PanelControlHit, _ int) bool { return other.Panel == hit.Panel })
	}
	if err != nil {
		c.log.WithError(err).WithField("action", hit.Action.String()).Warn("panel control failed")
		return hit, false
	}
	return hit, true
}
