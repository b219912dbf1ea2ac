package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"gdmigrate/internal/domain"
)

func TestClassify(t *testing.T) {
	top := State{Unit: domain.TabIndent}
	afterField := State{Unit: domain.TabIndent, Prev: domain.PublicField}
	afterMethod := State{Unit: domain.TabIndent, Prev: domain.PublicMethod, PrevOpens: true}
	afterBody := State{Unit: domain.TabIndent, Prev: domain.Other}
	afterExport := State{Unit: domain.TabIndent, Prev: domain.ExportedField, PrevAnnotation: true}
	afterOnready := State{Unit: domain.TabIndent, Prev: domain.DeferredInitField, PrevAnnotation: true}

	tests := []struct {
		text string
		st   State
		want domain.Category
	}{
		{"", top, domain.Blank},
		{"   \t", top, domain.Blank},
		{"# comment", top, domain.Comment},
		{"\t## doc", top, domain.Comment},
		{`"""Module docstring."""`, top, domain.Comment},
		{"tool", top, domain.ClassHeader},
		{"@tool", top, domain.ClassHeader},
		{"extends Node2D", top, domain.ClassHeader},
		{"class_name Player extends CharacterBody2D", top, domain.ClassHeader},
		{"signal died", top, domain.Signal},
		{"signal health_changed(value)", top, domain.Signal},
		{"enum State { IDLE, RUN }", top, domain.Enum},
		{"const SPEED = 10", top, domain.Constant},
		{"\tconst LOCAL = 1", afterBody, domain.Other},
		{"\tconst MISPLACED = 1", afterField, domain.Constant},
		{"export var hp = 10", top, domain.ExportedField},
		{"export(int, 0, 100) var hp = 10", top, domain.ExportedField},
		{"export onready var hp = $Hp", top, domain.ExportedField},
		{"onready export var hp = $Hp", top, domain.ExportedField},
		{"export(NodePath) onready var target = $T", top, domain.ExportedField},
		{"@onready", afterExport, domain.ExportedField},
		{"@export var hp = 10", top, domain.ExportedField},
		{"@export_range(0, 10) var hp = 10", top, domain.ExportedField},
		{"@export", top, domain.ExportedField},
		{"var hp = 10", afterExport, domain.ExportedField},
		{"onready var bar = $Bar", top, domain.DeferredInitField},
		{"@onready var bar = $Bar", top, domain.DeferredInitField},
		{"@onready", top, domain.DeferredInitField},
		{"var bar = $Bar", afterOnready, domain.DeferredInitField},
		{"var speed = 1.0", top, domain.PublicField},
		{"var _timer := 0.0", top, domain.PrivateField},
		{"static var count = 0", top, domain.PublicField},
		{"\tvar local = 1", afterBody, domain.Other},
		{"\tvar misplaced = 1", afterField, domain.PublicField},
		{"var first_local = 1", afterMethod, domain.Other},
		{"func _ready():", top, domain.LifecycleMethod},
		{"func _physics_process(delta):", top, domain.LifecycleMethod},
		{"func jump():", top, domain.PublicMethod},
		{"static func make():", top, domain.PublicMethod},
		{"func _on_hit(dmg):", top, domain.PrivateMethod},
		{"remotesync func sync_pos(p):", top, domain.PublicMethod},
		{"\tvar f = func(x): return x", afterBody, domain.Other},
		{"\tif hp <= 0:", afterBody, domain.ControlFlow},
		{"\treturn", afterBody, domain.ControlFlow},
		{"\tpass", afterBody, domain.ControlFlow},
		{"x = 5", top, domain.Other},
		{"class Inner:", top, domain.Other},
		{"@warning_ignore(\"unused\")", top, domain.Other},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text, tt.st))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	st := State{Unit: domain.TabIndent, Prev: domain.PublicField}
	for _, text := range []string{"const X = 1", "var y", "func f():", "if a:", "x = 1"} {
		first := Classify(text, st)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Classify(text, st), text)
		}
	}
}

func TestRefresh(t *testing.T) {
	src := strings.Join([]string{
		"extends Node",
		"",
		"# the bar",
		"@onready",
		"var bar = $Bar",
		"var data = {",
		"\t\"a\": 1,",
		"}",
		"func _ready():",
		"\tvar local = 1",
		"\tif local:",
		"\t\tprint(local)",
		"func long_args(a,",
		"\t\tb):",
		"\tpass",
	}, "\n")
	sf := domain.NewSourceFile("a.gd", src)
	Refresh(sf)

	want := []domain.Category{
		domain.ClassHeader, domain.Blank, domain.Comment,
		domain.DeferredInitField, domain.DeferredInitField,
		domain.PublicField, domain.Other, domain.Other,
		domain.LifecycleMethod, domain.Other, domain.ControlFlow, domain.Other,
		domain.PublicMethod, domain.Other, domain.ControlFlow,
	}
	assert.Equal(t, want, sf.Categories())

	assert.True(t, sf.Lines[3].Annotation)
	assert.False(t, sf.Lines[4].Annotation)
	assert.True(t, sf.Lines[6].Continuation)
	assert.True(t, sf.Lines[7].Continuation)
	assert.False(t, sf.Lines[8].Continuation)
	assert.True(t, sf.Lines[8].Opens)
	assert.True(t, sf.Lines[10].Opens)
	assert.True(t, sf.Lines[12].Opens, "opener spanning two lines")
	assert.True(t, sf.Lines[13].Continuation)
	assert.Equal(t, 2, sf.Lines[11].Depth)
}

func TestRefreshMultilineDocstring(t *testing.T) {
	sf := domain.NewSourceFile("a.gd", "\"\"\"\nvar not_code = 1\n\"\"\"\nvar real = 1\n")
	Refresh(sf)
	assert.Equal(t, domain.Comment, sf.Lines[0].Category)
	assert.True(t, sf.Lines[1].Continuation)
	assert.True(t, sf.Lines[2].Continuation)
	assert.Equal(t, domain.PublicField, sf.Lines[3].Category)
}

func TestIsInnerClassHeader(t *testing.T) {
	assert.True(t, IsInnerClassHeader("class Item extends Resource:"))
	assert.False(t, IsInnerClassHeader("class_name Item"))
	assert.False(t, IsInnerClassHeader("var class_ = 1"))
}
