package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/duration"
	"sigs.k8s.io/yaml"

	"github.com/giantswarm/kube-dynamic/internal/k8s"
)

// Printer renders server answers and the resource catalog.
type Printer struct {
	out    io.Writer
	config *Config
	now    func() time.Time
}

// NewPrinter creates a printer writing to out.
func NewPrinter(out io.Writer, config *Config) *Printer {
	if config == nil {
		config = DefaultConfig()
	}
	return &Printer{
		out:    out,
		config: config.Validate(),
		now:    time.Now,
	}
}

// Process applies secret masking and slim output to obj according to the
// configuration. The input is never modified.
func (p *Printer) Process(obj map[string]interface{}) map[string]interface{} {
	processed := obj

	// Apply secret masking first
	if p.config.MaskSecrets {
		processed = MaskSecrets(processed)
	}

	if p.config.SlimOutput {
		processed = SlimResource(processed, p.config.ExcludedFields)
	}

	return processed
}

// PrintObject prints a single object or a list object.
func (p *Printer) PrintObject(obj *unstructured.Unstructured) error {
	if obj == nil {
		obj = &unstructured.Unstructured{Object: map[string]interface{}{}}
	}
	processed := p.Process(obj.Object)

	switch p.config.Format {
	case FormatYAML:
		return p.writeYAML(processed)
	case FormatTable:
		return p.objectTable(processed)
	case FormatName:
		for _, row := range objectRows(processed) {
			if row.name == "" {
				continue
			}
			if _, err := fmt.Fprintln(p.out, row.qualifiedName()); err != nil {
				return err
			}
		}
		return nil
	default:
		return p.writeJSON(processed)
	}
}

// catalogEntry is the serialized form of one discovered resource.
type catalogEntry struct {
	Name         string           `json:"name"`
	SingularName string           `json:"singularName,omitempty"`
	Group        string           `json:"group,omitempty"`
	Version      string           `json:"version"`
	Kind         string           `json:"kind"`
	Namespaced   bool             `json:"namespaced"`
	Preferred    bool             `json:"preferred"`
	Verbs        []string         `json:"verbs"`
	ShortNames   []string         `json:"shortNames,omitempty"`
	Categories   []string         `json:"categories,omitempty"`
	URLs         k8s.URLTemplates `json:"urls"`
}

// PrintResources prints the resource catalog.
func (p *Printer) PrintResources(descriptors []k8s.ResourceDescriptor) error {
	switch p.config.Format {
	case FormatTable:
		return p.resourceTable(descriptors)
	case FormatName:
		for _, rd := range descriptors {
			if _, err := fmt.Fprintln(p.out, rd.QualifiedName()); err != nil {
				return err
			}
		}
		return nil
	}

	entries := make([]catalogEntry, 0, len(descriptors))
	for _, rd := range descriptors {
		entries = append(entries, catalogEntry{
			Name:         rd.Name,
			SingularName: rd.SingularName,
			Group:        rd.Group,
			Version:      rd.Version,
			Kind:         rd.Kind,
			Namespaced:   rd.Namespaced,
			Preferred:    rd.Preferred,
			Verbs:        rd.Verbs,
			ShortNames:   rd.ShortNames,
			Categories:   rd.Categories,
			URLs:         rd.URLs(),
		})
	}

	if p.config.Format == FormatYAML {
		return p.writeYAML(entries)
	}
	return p.writeJSON(entries)
}

func (p *Printer) writeJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	data = append(data, '\n')
	_, err = p.out.Write(data)
	return err
}

func (p *Printer) writeYAML(v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode YAML output: %w", err)
	}
	_, err = p.out.Write(data)
	return err
}

func (p *Printer) resourceTable(descriptors []k8s.ResourceDescriptor) error {
	table := tablewriter.NewWriter(p.out)
	table.Header("Name", "Shortnames", "APIVersion", "Namespaced", "Kind", "Verbs", "Preferred")

	for _, rd := range descriptors {
		_ = table.Append([]string{
			rd.Name,
			strings.Join(rd.ShortNames, ","),
			rd.APIVersion(),
			strconv.FormatBool(rd.Namespaced),
			rd.Kind,
			strings.Join(rd.Verbs, ","),
			strconv.FormatBool(rd.Preferred),
		})
	}

	return table.Render()
}

func (p *Printer) objectTable(obj map[string]interface{}) error {
	rows := objectRows(obj)

	namespaced := false
	for _, row := range rows {
		if row.namespace != "" {
			namespaced = true
			break
		}
	}

	table := tablewriter.NewWriter(p.out)
	if namespaced {
		table.Header("Namespace", "Name", "Kind", "Age")
	} else {
		table.Header("Name", "Kind", "Age")
	}

	for _, row := range rows {
		cells := []string{row.name, row.kind, p.age(row.created)}
		if namespaced {
			cells = append([]string{row.namespace}, cells...)
		}
		_ = table.Append(cells)
	}

	return table.Render()
}

// age renders a creation timestamp the way kubectl does.
func (p *Printer) age(created string) string {
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return "<unknown>"
	}
	return duration.HumanDuration(p.now().Sub(t))
}

// objectRow is the printable identity of one object.
type objectRow struct {
	apiVersion string
	kind       string
	namespace  string
	name       string
	created    string
}

// qualifiedName renders kind.group/name, e.g. deployment.apps/web.
func (r objectRow) qualifiedName() string {
	resource := strings.ToLower(r.kind)
	if group := schema.FromAPIVersionAndKind(r.apiVersion, r.kind).Group; group != "" {
		resource += "." + group
	}
	return resource + "/" + r.name
}

// objectRows returns one row per item of a list object, or a single row.
// List items without kind or apiVersion inherit them from the list.
func objectRows(obj map[string]interface{}) []objectRow {
	u := &unstructured.Unstructured{Object: obj}

	if _, isList := obj["items"].([]interface{}); !isList {
		return []objectRow{rowOf(u, u.GetAPIVersion(), u.GetKind())}
	}

	itemKind := strings.TrimSuffix(u.GetKind(), "List")
	items := listItems(obj)
	rows := make([]objectRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, rowOf(&unstructured.Unstructured{Object: item}, u.GetAPIVersion(), itemKind))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].namespace != rows[j].namespace {
			return rows[i].namespace < rows[j].namespace
		}
		return rows[i].name < rows[j].name
	})
	return rows
}

func rowOf(u *unstructured.Unstructured, apiVersion, kind string) objectRow {
	if v := u.GetAPIVersion(); v != "" {
		apiVersion = v
	}
	if k := u.GetKind(); k != "" {
		kind = k
	}
	created, _, _ := unstructured.NestedString(u.Object, "metadata", "creationTimestamp")
	return objectRow{
		apiVersion: apiVersion,
		kind:       kind,
		namespace:  u.GetNamespace(),
		name:       u.GetName(),
		created:    created,
	}
}
