package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/mzielinska/rarog/internal/errors"
	"github.com/mzielinska/rarog/internal/project"
	"github.com/mzielinska/rarog/internal/validate"
)

const helpText = `rarog commands

Context providers (name: argument):
  calc: <expression>     evaluate arithmetic
  folder: <path>         analyze a directory
  doc: <file>            read a document into context
  (plus any commands discovered in the commands directory; see :commands)

Directives:
  :help                  this help
  :settings              show current settings
  :commands              list registered commands
  :clear                 clear conversation history
  :model <name>          switch the chat model
  :project create <name> [description]
  :project switch <id or name>
  :project list
  :project info [id or name]
  :project open [id or name]
  :project validate [id or name]
  :exit                  leave`

// modelSwitcher is satisfied by providers that can change model
// without reconnecting.
type modelSwitcher interface{ SetModel(string) }

func (d *Dispatcher) handleDirective(ctx context.Context, c Classification) *Outcome {
	switch c.Directive {
	case "help":
		return &Outcome{Kind: HandledLocally, Output: helpText}

	case "settings":
		return &Outcome{Kind: HandledLocally, Output: d.renderSettings()}

	case "commands":
		return &Outcome{Kind: HandledLocally, Output: d.renderCommands()}

	case "clear":
		d.store.Session().Clear()
		return &Outcome{Kind: HandledLocally, Output: "conversation history cleared"}

	case "model":
		if c.DirectiveArg == "" {
			return &Outcome{Kind: HandledLocally, Output: "current model: " + d.cfg.Model}
		}
		d.cfg.Model = c.DirectiveArg
		if sw, ok := d.prov.(modelSwitcher); ok {
			sw.SetModel(c.DirectiveArg)
		}
		return &Outcome{Kind: HandledLocally, Output: "model switched to " + c.DirectiveArg}

	case "project":
		return d.handleProjectDirective(ctx, c.DirectiveArg)

	case "exit", "quit", "q":
		return &Outcome{Kind: SessionEnd, Output: "bye"}

	default:
		return &Outcome{
			Kind:   HandledLocally,
			Output: fmt.Sprintf("unknown command :%s (try :help)", c.Directive),
		}
	}
}

func (d *Dispatcher) renderSettings() string {
	var b strings.Builder
	b.WriteString("Settings\n")
	fmt.Fprintf(&b, "  model:           %s\n", d.cfg.Model)
	fmt.Fprintf(&b, "  model host:      %s\n", d.cfg.ModelHost)
	fmt.Fprintf(&b, "  commands dir:    %s\n", d.cfg.CommandsDir)
	fmt.Fprintf(&b, "  projects dir:    %s\n", d.cfg.ProjectsDir)
	fmt.Fprintf(&b, "  command timeout: %ds\n", d.cfg.CommandTimeoutSecs)
	fmt.Fprintf(&b, "  user name:       %s\n", d.cfg.UserName)
	fmt.Fprintf(&b, "  assistant name:  %s\n", d.cfg.AssistantName)
	fmt.Fprintf(&b, "  session:         %s", d.store.Session().ID)
	return b.String()
}

func (d *Dispatcher) renderCommands() string {
	descs := d.reg.Descriptors()
	if len(descs) == 0 {
		return "no commands registered"
	}

	var b strings.Builder
	b.WriteString("Registered commands\n")
	for _, desc := range descs {
		marker := " "
		if desc.ContextProvider {
			marker = "*"
		}
		line := fmt.Sprintf("  %s %-10s %s", marker, desc.Name+":", desc.Description)
		if len(desc.Aliases) > 0 {
			line += fmt.Sprintf(" (aliases: %s)", strings.Join(desc.Aliases, ", "))
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("  * = output is captured as project context")
	return b.String()
}

func (d *Dispatcher) handleProjectDirective(_ context.Context, arg string) *Outcome {
	verb, rest, _ := strings.Cut(arg, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "create":
		name, description, _ := strings.Cut(rest, " ")
		p, err := d.store.Create(name, strings.TrimSpace(description), nil)
		if err != nil {
			return &Outcome{Kind: HandledLocally, Output: errors.UserMessage(err)}
		}
		return &Outcome{Kind: HandledLocally, Output: fmt.Sprintf("project %s created and active (%s)", p.Name, p.ID)}

	case "switch":
		p, err := d.store.Switch(rest)
		if err != nil {
			return &Outcome{Kind: HandledLocally, Output: errors.UserMessage(err)}
		}
		return &Outcome{Kind: HandledLocally, Output: fmt.Sprintf("switched to project %s (%d artifacts)", p.Name, p.ArtifactCount())}

	case "list":
		return &Outcome{Kind: HandledLocally, Output: d.renderProjectList()}

	case "info":
		p, out := d.targetProject(rest)
		if p == nil {
			return out
		}
		return &Outcome{Kind: HandledLocally, Output: renderProjectInfo(p)}

	case "open":
		p, out := d.targetProject(rest)
		if p == nil {
			return out
		}
		path, err := d.store.Materialize(p)
		if err != nil {
			return &Outcome{Kind: HandledLocally, Output: errors.UserMessage(err)}
		}
		return &Outcome{Kind: HandledLocally, Output: "bundle written to " + path}

	case "validate":
		p, out := d.targetProject(rest)
		if p == nil {
			return out
		}
		path, err := d.store.Materialize(p)
		if err != nil {
			return &Outcome{Kind: HandledLocally, Output: errors.UserMessage(err)}
		}
		report, err := validate.Bundle(path)
		if err != nil {
			return &Outcome{Kind: HandledLocally, Output: errors.UserMessage(errors.NewStorage(err))}
		}
		return &Outcome{Kind: HandledLocally, Output: renderReport(path, report)}

	default:
		return &Outcome{
			Kind:   HandledLocally,
			Output: "usage: :project create|switch|list|info|open|validate",
		}
	}
}

// targetProject resolves the directive target: the named project, or
// the active one when no name is given.
func (d *Dispatcher) targetProject(idOrName string) (*project.Project, *Outcome) {
	if idOrName == "" {
		p := d.store.Active()
		if p == nil {
			return nil, &Outcome{Kind: HandledLocally, Output: "no active project (use :project create <name>)"}
		}
		return p, nil
	}
	p, err := d.store.Get(idOrName)
	if err != nil {
		return nil, &Outcome{Kind: HandledLocally, Output: errors.UserMessage(err)}
	}
	return p, nil
}

func (d *Dispatcher) renderProjectList() string {
	projects := d.store.List()
	if len(projects) == 0 {
		return "no projects in this session (use :project create <name>)"
	}

	active := d.store.Active()
	var b strings.Builder
	b.WriteString("Projects\n")
	for _, p := range projects {
		marker := " "
		if p == active {
			marker = "*"
		}
		fmt.Fprintf(&b, "  %s %s  %s (%d artifacts)\n", marker, p.ID, p.Name, p.ArtifactCount())
	}
	b.WriteString("  * = active")
	return b.String()
}

func renderProjectInfo(p *project.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project %s\n", p.Name)
	fmt.Fprintf(&b, "  id:          %s\n", p.ID)
	if p.Description != "" {
		fmt.Fprintf(&b, "  description: %s\n", p.Description)
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "  tags:        %s\n", strings.Join(p.Tags, ", "))
	}
	fmt.Fprintf(&b, "  created:     %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "  artifacts:   %d", p.ArtifactCount())
	if p.BundlePath != "" {
		fmt.Fprintf(&b, "\n  bundle:      %s", p.BundlePath)
	}
	return b.String()
}

func renderReport(path string, r *validate.Report) string {
	var b strings.Builder
	if r.Valid {
		fmt.Fprintf(&b, "%s: valid", path)
	} else {
		fmt.Fprintf(&b, "%s: INVALID", path)
	}
	for _, e := range r.Errors {
		b.WriteString("\n  error: " + e)
	}
	for _, w := range r.Warnings {
		b.WriteString("\n  warning: " + w)
	}
	return b.String()
}
