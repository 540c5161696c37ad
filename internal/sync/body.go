package sync

import (
	"strings"
	"text/template"

	"github.com/stellarlink/specsync/internal/mapping"
	"github.com/stellarlink/specsync/internal/tasks"
)

// Issue and Epic bodies are regenerated on every sync so GitHub always
// reflects the current checklist text.

var issueBodyTmpl = template.Must(template.New("issue").Parse(`{{if .Goal}}## Goal

{{.Goal}}

{{end}}## Tasks

{{range .Tasks}}- [{{if .Checked}}x{{else}} {{end}}] {{.ID}}{{if .Description}} {{.Description}}{{end}}
{{end}}
---
*Tracked by specification {{.SpecNumber}} ({{.SpecName}}). Synchronized from {{.TasksPath}}.*
`))

var epicBodyTmpl = template.Must(template.New("epic").Parse(`# {{.Title}}

Feature specification ` + "`{{.Number}}-{{.Name}}`" + ` on branch ` + "`{{.Branch}}`" + `.

## Task groups

{{range .Groups}}- {{if .Number}}#{{.Number}} {{end}}{{.Title}} ({{.Done}}/{{.Total}} tasks done)
{{end}}
---
*Epic for specification {{.Number}}. Sub-issues are created and closed automatically from the task file.*
`))

type issueBodyData struct {
	Goal       string
	Tasks      []tasks.Task
	SpecNumber string
	SpecName   string
	TasksPath  string
}

type epicGroup struct {
	Number int
	Title  string
	Done   int
	Total  int
}

type epicBodyData struct {
	Title  string
	Number string
	Name   string
	Branch string
	Groups []epicGroup
}

func renderIssueBody(meta SpecMeta, d *tasks.Descriptor) string {
	tasksPath := meta.Directory + "/tasks.md"
	var sb strings.Builder
	_ = issueBodyTmpl.Execute(&sb, issueBodyData{
		Goal:       d.Goal,
		Tasks:      d.Tasks,
		SpecNumber: meta.Number,
		SpecName:   meta.Name,
		TasksPath:  tasksPath,
	})
	return sb.String()
}

// renderEpicBody lists every task group with its sub-issue number when
// known. During Epic creation the numbers are still zero; the body is
// refreshed at the end of the pass once all sub-issues exist.
func renderEpicBody(meta SpecMeta, descriptors []tasks.Descriptor, spec *mapping.Specification) string {
	title := meta.Title
	if title == "" {
		title = meta.Name
	}

	groups := make([]epicGroup, 0, len(descriptors))
	for i := range descriptors {
		d := &descriptors[i]
		g := epicGroup{Title: d.Title, Total: len(d.Tasks)}
		for _, task := range d.Tasks {
			if task.Checked {
				g.Done++
			}
		}
		if spec != nil {
			if rec := spec.FindIssue(IssueKey(d.Title), d.Title); rec != nil {
				g.Number = rec.Number
			}
		}
		groups = append(groups, g)
	}

	var sb strings.Builder
	_ = epicBodyTmpl.Execute(&sb, epicBodyData{
		Title:  title,
		Number: meta.Number,
		Name:   meta.Name,
		Branch: meta.Branch,
		Groups: groups,
	})
	return sb.String()
}
