package config

import (
	"context"
	"testing"
)

func TestLoaderBuildsComponents(t *testing.T) {
	dir := t.TempDir()
	kbPath := writeFile(t, dir, "kb.txt", `1 если погода-дождь то действие-зонт
вопрос погода Какая сегодня погода?`)
	cfgPath := writeFile(t, dir, "sage.yaml", "knowledge_path: "+kbPath+"\naudit_db_path: "+dir+"/audit.db\n")

	comp, err := (&Loader{Path: cfgPath}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer comp.Audit.Close()

	if comp.Base.RuleCount() != 1 {
		t.Errorf("Expected 1 rule, got %d", comp.Base.RuleCount())
	}
	if comp.Audit == nil {
		t.Error("Expected an audit store")
	}
}

func TestLoaderWithoutAudit(t *testing.T) {
	dir := t.TempDir()
	kbPath := writeFile(t, dir, "kb.txt", "1 если погода-дождь то действие-зонт")
	cfgPath := writeFile(t, dir, "sage.yaml", "knowledge_path: "+kbPath+"\n")

	comp, err := (&Loader{Path: cfgPath}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if comp.Audit != nil {
		t.Error("Expected no audit store when audit_db_path is empty")
	}
}

func TestLoaderRejectsBrokenKnowledge(t *testing.T) {
	dir := t.TempDir()
	kbPath := writeFile(t, dir, "kb.txt", "1 если погода-дождь то")
	cfgPath := writeFile(t, dir, "sage.yaml", "knowledge_path: "+kbPath+"\n")

	if _, err := (&Loader{Path: cfgPath}).Load(context.Background()); err == nil {
		t.Error("Expected a parse error to abort loading")
	}
}
