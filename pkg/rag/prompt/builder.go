package prompt

import (
	"fmt"
	"strings"

	"github.com/Natthaphatpiw/agn-chat/pkg/llm"
	"github.com/Natthaphatpiw/agn-chat/pkg/store"
)

const (
	NormalizeSystemPrompt = "คุณเป็นผู้ช่วยที่ช่วยปรับแก้คำถามให้ชัดเจนและเหมาะสมสำหรับการค้นหาข้อมูลทางการแพทย์\n" +
		"ให้คุณปรับแก้คำถามให้สมบูรณ์ ชัดเจน และแก้ไขคำผิดหากมี แต่คงความหมายเดิม ตอบเป็นภาษาไทย"

	normalizeUserTemplate = "ปรับแก้คำถามนี้ให้ชัดเจนและเหมาะสมสำหรับการค้นหา: %s"

	AnswerSystemPrompt = "คุณเป็นผู้ช่วยทางการแพทย์ที่ให้คำตอบจากข้อมูล Q&A ที่มีอยู่\n" +
		"ให้คุณตอบคำถามโดยอิงจากบริบทที่ให้มาเท่านั้น ตอบเป็นภาษาไทยที่เป็นธรรมชาติและเข้าใจง่าย\n" +
		"หากข้อมูลไม่เพียงพอ ให้แนะนำให้ปรึกษาแพทย์"
)

// NormalizeTurns is the single exchange that asks the backend to clean up a query.
func NormalizeTurns(rawQuery string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: NormalizeSystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(normalizeUserTemplate, rawQuery)},
	}
}

// BuildContextBlock renders contexts as numbered Q&A sections. Empty fields are skipped.
func BuildContextBlock(contexts []store.RetrievedContext) string {
	sections := make([]string, 0, len(contexts))
	for i, c := range contexts {
		var b strings.Builder
		fmt.Fprintf(&b, "\n--- Q&A %d ---", i+1)
		if c.Topic != "" {
			b.WriteString("\nหัวข้อ: ")
			b.WriteString(c.Topic)
		}
		if c.Question != "" {
			b.WriteString("\nคำถาม: ")
			b.WriteString(c.Question)
		}
		if c.Answer != "" {
			b.WriteString("\nคำตอบ: ")
			b.WriteString(c.Answer)
		}
		sections = append(sections, b.String())
	}
	return strings.Join(sections, "\n")
}

// AnswerUserPrompt frames the query together with its context block.
func AnswerUserPrompt(query string, contexts []store.RetrievedContext) string {
	var b strings.Builder
	b.WriteString("บริบทจาก Q&A:\n")
	b.WriteString(BuildContextBlock(contexts))
	b.WriteString("\n\nคำถาม: ")
	b.WriteString(query)
	b.WriteString("\n\nกรุณาตอบคำถามโดยอิงจากบริบทข้างต้น:")
	return b.String()
}

// AnswerTurns is the stateless grounded-answer exchange.
func AnswerTurns(query string, contexts []store.RetrievedContext) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: AnswerSystemPrompt},
		{Role: llm.RoleUser, Content: AnswerUserPrompt(query, contexts)},
	}
}

// ConversationSystemPrompt carries the grounded-answer instruction plus the
// contexts for one conversational turn, so memory holds only the plain dialog.
func ConversationSystemPrompt(contexts []store.RetrievedContext) string {
	var b strings.Builder
	b.WriteString(AnswerSystemPrompt)
	b.WriteString("\n\nบริบทจาก Q&A:\n")
	b.WriteString(BuildContextBlock(contexts))
	return b.String()
}
