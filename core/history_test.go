package core

import "testing"

func TestHistory_AppendAssignsSeq(t *testing.T) {
	h := NewHistory()

	seed := h.Append(NewTaskMessage("hi"))
	if seed.Seq != 0 {
		t.Fatalf("seed message should take seq 0, got %d", seed.Seq)
	}

	second := h.Append(NewAssistantMessage("a", "one"))
	third := h.Append(NewAssistantMessage("b", "two"))
	if second.Seq != 1 || third.Seq != 2 {
		t.Fatalf("unexpected seq assignment: %d, %d", second.Seq, third.Seq)
	}
	if h.Len() != 3 {
		t.Fatalf("expected 3 messages, got %d", h.Len())
	}
}

func TestHistory_MessagesCopiedOnRead(t *testing.T) {
	h := NewHistory()
	h.Append(NewAssistantMessage("a", "one"))

	all := h.Messages()
	orig := all[0].Author
	all[0].Author = "changed"
	if h.Messages()[0].Author != orig {
		t.Error("messages slice should be copied on read")
	}
}

func TestHistory_Last(t *testing.T) {
	h := NewHistory()
	if _, ok := h.Last(); ok {
		t.Error("empty history should report no last message")
	}

	h.Append(NewAssistantMessage("a", "one"))
	h.Append(NewAssistantMessage("b", "two"))
	last, ok := h.Last()
	if !ok || last.Text() != "two" || last.Seq != 1 {
		t.Fatalf("unexpected last message: %+v", last)
	}
}
