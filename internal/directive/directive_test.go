package directive

import "testing"

func TestExtractNone(t *testing.T) {
	if got := Extract("Задача понятна: обычный ответ без блоков."); got != nil {
		t.Fatalf("expected no blocks, got %v", got)
	}
}

func TestExtractSingle(t *testing.T) {
	reply := "Задача понятна: X.\n\n[BACKSTAGE]\nРоль: Стратег\nСтатус: waiting_approval\n[/BACKSTAGE]"
	blocks := Extract(reply)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0] != "Роль: Стратег\nСтатус: waiting_approval" {
		t.Fatalf("unexpected body: %q", blocks[0])
	}
}

func TestExtractMultipleInOrder(t *testing.T) {
	reply := "[BACKSTAGE]first[/BACKSTAGE] middle [BACKSTAGE]second[/BACKSTAGE]"
	blocks := Extract(reply)
	if len(blocks) != 2 || blocks[0] != "first" || blocks[1] != "second" {
		t.Fatalf("unexpected blocks: %v", blocks)
	}
}

func TestExtractUnclosedSkipped(t *testing.T) {
	if got := Extract("[BACKSTAGE]dangling without close"); got != nil {
		t.Fatalf("unclosed envelope must yield nothing, got %v", got)
	}
	// a well-formed block before the dangling one still extracts
	blocks := Extract("[BACKSTAGE]ok[/BACKSTAGE][BACKSTAGE]broken")
	if len(blocks) != 1 || blocks[0] != "ok" {
		t.Fatalf("unexpected blocks: %v", blocks)
	}
}

func TestParseCommandNarrationOnly(t *testing.T) {
	cmd, ok, err := ParseCommand("Роль: Оркестратор\nДействие: Эмуляция ответа")
	if err != nil || ok {
		t.Fatalf("narration block must be ok=false err=nil, got %v %v %v", cmd, ok, err)
	}
}

func TestParseCommandCreateTask(t *testing.T) {
	body := "Действие: Сформирована задача\nOPCODE: JSON_CMD\nPAYLOAD: {\"type\":\"create_task\",\"title\":\"T1\"}"
	cmd, ok, err := ParseCommand(body)
	if err != nil || !ok {
		t.Fatalf("parse: ok=%v err=%v", ok, err)
	}
	if cmd.Type != TypeCreateTask || cmd.Title != "T1" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
}

func TestParseCommandMalformedPayload(t *testing.T) {
	body := "OPCODE: JSON_CMD\nPAYLOAD: {not json"
	if _, ok, err := ParseCommand(body); ok || err == nil {
		t.Fatalf("malformed payload must error, got ok=%v err=%v", ok, err)
	}
}

func TestParseCommandMissingPayloadLine(t *testing.T) {
	if _, ok, err := ParseCommand("OPCODE: JSON_CMD\nno payload here"); ok || err == nil {
		t.Fatalf("missing payload must error, got ok=%v err=%v", ok, err)
	}
}

func TestParseCommandMissingType(t *testing.T) {
	if _, ok, err := ParseCommand("OPCODE: JSON_CMD\nPAYLOAD: {\"title\":\"x\"}"); ok || err == nil {
		t.Fatalf("payload without type must error, got ok=%v err=%v", ok, err)
	}
}

func TestKnown(t *testing.T) {
	for _, typ := range []string{TypeCreateTask, TypeConfirm, TypeRebalance} {
		if !Known(typ) {
			t.Fatalf("%s should be known", typ)
		}
	}
	if Known("delete_everything") {
		t.Fatal("unknown type reported as known")
	}
}
