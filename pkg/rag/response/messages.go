package response

const (
	// ApologyMessage is returned when retrieval found nothing.
	ApologyMessage = "ขออภัย ไม่พบข้อมูลที่เกี่ยวข้องกับคำถามของคุณ กรุณาลองถามคำถามอื่นหรือติดต่อแพทย์โดยตรง"

	fallbackHeader     = "จากข้อมูลที่เกี่ยวข้องกับคำถาม: %s\n"
	fallbackDisclaimer = "\n\nหมายเหตุ: นี่คือข้อมูลจากฐานข้อมูล Q&A สำหรับคำตอบที่ละเอียดกว่านี้ ควรปรึกษาแพทย์โดยตรง"

	previewRunes    = 300
	ellipsis        = "..."
	maxFallbackDocs = 3
)
