package contracts_test

import (
	"testing"

	"github.com/w3licence/licence-gateway/pkg/contracts"
)

func TestABIsParse(t *testing.T) {
	for _, spec := range contracts.Specs() {
		parsed, err := spec.MetaData.GetAbi()
		if err != nil {
			t.Fatalf("Should have parsed the %v ABI: err: %v", spec.Name, err)
		}
		if len(parsed.Events) == 0 {
			t.Errorf("Should have events for %v", spec.Name)
		}
	}
}

func TestEventListsMatchABIs(t *testing.T) {
	cm, err := contracts.ContentManagerMetaData.GetAbi()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	for _, name := range contracts.EventTypesContentManager() {
		if _, ok := cm.Events[name]; !ok {
			t.Errorf("Event %v missing from the ContentManager ABI", name)
		}
	}
	lm, err := contracts.LicenceManagerMetaData.GetAbi()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	for _, name := range contracts.EventTypesLicenceManager() {
		if _, ok := lm.Events[name]; !ok {
			t.Errorf("Event %v missing from the LicenceManager ABI", name)
		}
	}
	if !contracts.IsValidLicenceManagerEventName(" LicenceIssued_") {
		t.Errorf("Should trim the event name before matching")
	}
	if contracts.IsValidContentManagerEventName("LicenceIssued") {
		t.Errorf("Should not match an event of the other contract")
	}
}

func TestTupleMethods(t *testing.T) {
	cm, _ := contracts.ContentManagerMetaData.GetAbi()
	method, ok := cm.Methods["getContent"]
	if !ok {
		t.Fatalf("getContent missing")
	}
	if len(method.Outputs) != 1 || len(method.Outputs[0].Type.TupleElems) != 6 {
		t.Errorf("getContent should return a six field tuple")
	}
	lm, _ := contracts.LicenceManagerMetaData.GetAbi()
	method, ok = lm.Methods["getLicencesForUser"]
	if !ok {
		t.Fatalf("getLicencesForUser missing")
	}
	if method.Outputs[0].Type.Elem == nil || len(method.Outputs[0].Type.Elem.TupleElems) != 5 {
		t.Errorf("getLicencesForUser should return a five field tuple array")
	}
}
