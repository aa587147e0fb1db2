// Package gen contains all the components for code generation.
package gen

import (
	"bytes"
	"go/format"
	"io"
	"sort"
	"strings"
	"text/template"

	log "github.com/golang/glog"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/w3licence/licence-gateway/pkg/contracts"
)

// EventListContractTmplData represents the events for each supported contract
type EventListContractTmplData struct {
	Name       string
	EventNames []string
}

// EventListTmplData represents the data passed to the EventList template
type EventListTmplData struct {
	PackageName string
	Contracts   []*EventListContractTmplData
}

// GenerateEventLists generates the code that represents the list of event names
// for each registry contract
func GenerateEventLists(writer io.Writer, packageName string) error {
	contractData := []*EventListContractTmplData{}
	for _, spec := range contracts.Specs() {
		_abi, err := loadAbiFromStr(spec.MetaData.ABI)
		if err != nil {
			log.Errorf("Error loading ABI from string: err: %v", err)
			continue
		}
		contractData = append(contractData, &EventListContractTmplData{
			Name:       spec.Name,
			EventNames: retrieveEventNamesFromAbi(_abi),
		})
	}
	tmplData := &EventListTmplData{
		PackageName: packageName,
		Contracts:   contractData,
	}
	return generate(writer, "eventslist.tmpl", eventListTmpl, tmplData, true)
}

func retrieveEventNamesFromAbi(_abi *abi.ABI) []string {
	sortedEvents := eventsToSortedEventsSlice(_abi.Events)
	eventNames := make([]string, len(sortedEvents))
	for index, event := range sortedEvents {
		eventNames[index] = event.Name
	}
	return eventNames
}

func loadAbiFromStr(abiStr string) (*abi.ABI, error) {
	_abi, err := abi.JSON(strings.NewReader(abiStr))
	if err != nil {
		return nil, err
	}
	return &_abi, nil
}

func eventsToSortedEventsSlice(eventsMap map[string]abi.Event) []abi.Event {
	sortedEvents := make([]abi.Event, 0, len(eventsMap))
	for _, val := range eventsMap {
		sortedEvents = append(sortedEvents, val)
	}
	sort.Slice(sortedEvents, func(i, j int) bool {
		return sortedEvents[i].Name < sortedEvents[j].Name
	})
	return sortedEvents
}

func generate(writer io.Writer, tmplName string, tmpl string,
	tmplData interface{}, gofmt bool) error {
	t := template.Must(template.New(tmplName).Parse(tmpl))
	buf := &bytes.Buffer{}
	err := t.Execute(buf, tmplData)
	if err != nil {
		return err
	}
	output := buf.Bytes()
	if gofmt {
		output, err = format.Source(buf.Bytes())
		if err != nil {
			log.Errorf("ERROR Gofmt: err:%v\ntemplate generated code:\n%v", err, buf.String())
			return err
		}
	}
	_, err = writer.Write(output)
	return err
}

const eventListTmpl = `// Code generated by eventlistgen. DO NOT EDIT.

package {{.PackageName}}

import (
	"strings"
)

func isStringInSlice(slice []string, target string) bool {
	for _, str := range slice {
		if target == str {
			return true
		}
	}
	return false
}
{{range .Contracts}}
// EventTypes{{.Name}} returns the event types for {{.Name}}
func EventTypes{{.Name}}() []string {
	return []string{
{{- range .EventNames}}
		"{{.}}",
{{- end}}
	}
}

// IsValid{{.Name}}EventName returns true if the name is a valid {{.Name}} event
func IsValid{{.Name}}EventName(name string) bool {
	name = strings.Trim(name, " _")
	return isStringInSlice(EventTypes{{.Name}}(), name)
}
{{end}}`
