package model

import (
	"slices"
	"time"
)

// DefaultLayoutName is used when a layout is created without a name.
const DefaultLayoutName = "Default Layout"

type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Widget is one placed dashboard widget.
type Widget struct {
	ID       string   `json:"id" yaml:"id"`
	Type     string   `json:"type" yaml:"type"`
	Position Position `json:"position" yaml:"position"`
	Size     Size     `json:"size" yaml:"size"`
}

// LayoutSpec is the ordered widget set of a layout.
type LayoutSpec struct {
	Widgets []Widget `json:"widgets" yaml:"widgets"`
}

func (l LayoutSpec) Clone() LayoutSpec {
	if l.Widgets == nil {
		return LayoutSpec{Widgets: []Widget{}}
	}
	return LayoutSpec{Widgets: slices.Clone(l.Widgets)}
}

// DashboardLayout is a named widget arrangement. At most one layout per
// user should have IsDefault set; the layout service maintains that.
type DashboardLayout struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Name      string     `json:"name"`
	Layout    LayoutSpec `json:"layout"`
	IsDefault bool       `json:"isDefault"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (d DashboardLayout) Clone() DashboardLayout {
	d.Layout = d.Layout.Clone()
	return d
}

type LayoutPatch struct {
	Name      *string
	Layout    *LayoutSpec
	IsDefault *bool
}

func (p LayoutPatch) Apply(d *DashboardLayout) {
	setIf(&d.Name, p.Name)
	setIf(&d.IsDefault, p.IsDefault)
	if p.Layout != nil {
		d.Layout = p.Layout.Clone()
	}
}
