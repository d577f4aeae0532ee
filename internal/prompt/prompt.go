// Package prompt builds the instruction text sent to the generation endpoint.
// Every builder is a pure function of its arguments.
package prompt

import (
	"fmt"
	"strings"
)

// Caption section headers the caption call must answer with.
const (
	CaptionCuriousHeader   = "=== CAPTION TÒ MÒ ==="
	CaptionClickbaitHeader = "=== CAPTION GIẬT TÍT ==="
	CaptionHumorHeader     = "=== CAPTION HÀI HƯỚC / CÀ KHỊA ==="
)

// CaptionHeaders lists the section headers in answer order.
var CaptionHeaders = []string{CaptionCuriousHeader, CaptionClickbaitHeader, CaptionHumorHeader}

// SummaryInputLimit caps the runes of translated text embedded into the summary call.
const SummaryInputLimit = 2000

const (
	contextOpenTag  = "<ngu_canh>"
	contextCloseTag = "</ngu_canh>"
)

var introPersona = []string{
	"Mày là Biên Kịch Mặn Mòi của kênh Đầy Bụng Review, chuyên viết intro cho video review phim.",
	"Biến đoạn kịch bản gốc thành một intro 30 giây có hook thật bén, khiến người xem phải dừng lại.",
	"⚠️ LUẬT VÀNG PHẢI THEO:",
	"1. Dịch thoát ý và sáng tạo, được thêm thắt để tạo bất ngờ.",
	"2. Vài câu đầu phải đặt ra một vấn đề gây sốc hoặc một câu hỏi lớn.",
	"3. Nhắc tên kênh \"Đầy Bụng Review\" một cách tự nhiên trong những dòng đầu.",
	"4. ĐỘ DÀI: câu dịch PHẢI có số từ ÍT HƠN hoặc BẰNG câu gốc.",
	"5. Xưng hô thân thiện: \"tao - mày\", \"tui - mấy bà\", \"anh em mình\".",
	"6. Mỗi câu dịch chỉ nằm trên một dòng.",
}

var mainPersona = []string{
	"Mày là Biên Kịch Chính có duyên của kênh Đầy Bụng Review, viết lời thoại cho video YouTube.",
	"⚠️ LUẬT VÀNG PHẢI THEO:",
	"1. Giữ một cá tính nhất quán cho người lồng tiếng.",
	"2. Kể chuyện có nhịp điệu, biết lúc tấu hài và lúc sâu lắng.",
	"3. ĐỘ DÀI: câu dịch PHẢI có số từ ÍT HƠN hoặc BẰNG câu gốc.",
	"4. Thỉnh thoảng chèn một câu bình luận ngắn gọn, hài hước.",
	"5. Mỗi câu dịch chỉ nằm trên một dòng.",
}

var numberingRules = []string{
	"**QUY TẮC ĐỊNH DẠNG (BẮT BUỘC):**",
	"- Trả lời bằng một danh sách được đánh số y hệt danh sách đã nhận, mỗi số một dòng.",
	"- Ví dụ: nhận \"[1] text1\\n[2] text2\" thì trả lời \"[1] dịch_câu_1\\n[2] dịch_câu_2\".",
	"- TUYỆT ĐỐI không thêm ký tự, ghi chú hay số từ nào khác.",
}

// Translation builds the instruction for one batch. intro selects the opening
// persona; previousContext is wrapped in the context tag when non-empty.
func Translation(texts []string, intro bool, previousContext string) string {
	persona := mainPersona
	if intro {
		persona = introPersona
	}

	parts := []string{strings.Join(persona, "\n")}
	if previousContext != "" {
		parts = append(parts, contextOpenTag+"\n"+previousContext+"\n"+contextCloseTag)
	}
	parts = append(parts,
		strings.Join(numberingRules, "\n"),
		"Văn bản cần dịch:\n---\n"+NumberedList(texts)+"\n---",
	)
	return strings.Join(parts, "\n\n")
}

// NumberedList renders texts as "[n] text" lines, one line per text.
func NumberedList(texts []string) string {
	lines := make([]string, len(texts))
	for i, text := range texts {
		text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
		lines[i] = fmt.Sprintf("[%d] %s", i+1, text)
	}
	return strings.Join(lines, "\n")
}

// Summary embeds at most SummaryInputLimit runes of fullText.
func Summary(fullText string) string {
	return "Tóm tắt nội dung sau thành 3 phần (đầu, giữa, cuối) để chuẩn bị viết caption: " +
		Truncate(fullText, SummaryInputLimit)
}

// Truncate cuts s to at most n runes without regard for word boundaries.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Captions asks for three caption variants under the fixed section headers.
func Captions(summary string) string {
	lines := []string{
		"Mày là Copywriter chuyên viết caption cho video review phim trên YouTube/TikTok.",
		"Dựa vào nội dung tóm tắt bên dưới, viết **3 LỰA CHỌN CAPTION** với 3 phong cách riêng biệt.",
		"**NỘI DUNG PHIM (TÓM TẮT):**",
		summary,
		"",
		"**YÊU CẦU CHUNG:**",
		"- Mỗi caption có hashtag và emoji phù hợp.",
		"- Ngôn ngữ tự nhiên, hấp dẫn, đúng chất GenZ.",
		"",
		"**3 PHONG CÁCH:**",
		"1. TÒ MÒ: đặt câu hỏi, tạo một bí ẩn lớn.",
		"2. GIẬT TÍT: từ ngữ mạnh, gây sốc để câu view.",
		"3. HÀI HƯỚC / CÀ KHỊA: nhìn phim từ góc độ vô lý, tấu hài.",
		"",
		"**FORMAT TRẢ VỀ (PHẢI THEO ĐÚNG 100%):**",
	}
	for i, header := range CaptionHeaders {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, header, fmt.Sprintf("[Nội dung caption %d]", i+1), "#hashtag #hashtag")
	}
	return strings.Join(lines, "\n")
}

// Thumbnail asks for at most two short lines of thumbnail text.
func Thumbnail(summary string) string {
	lines := []string{
		"Mày là designer thumbnail YouTube/TikTok, biết cách tạo text hút mắt.",
		"Dựa vào nội dung phim sau, tạo text ngắn gọn để làm thumbnail:",
		"**NỘI DUNG PHIM (TÓM TẮT):**",
		summary,
		"",
		"**YÊU CẦU:**",
		"1. Tối đa 5 từ, tối đa 2 dòng.",
		"2. Phải gây sốc, gây tò mò.",
		"",
		"**FORMAT:**",
		"[TEXT DÒNG 1]",
		"[TEXT DÒNG 2] (nếu cần)",
		"Chỉ trả text thôi, không giải thích gì thêm.",
	}
	return strings.Join(lines, "\n")
}

// Shorten asks for a translation cut down to maxWords words.
func Shorten(original, translation string, maxWords, currentWords int) string {
	return strings.Join([]string{
		fmt.Sprintf("Rút gọn câu dịch sau cho số từ ≤ %d từ mà vẫn giữ ý chính.", maxWords),
		fmt.Sprintf("- Câu gốc: %q (%d từ)", original, maxWords),
		fmt.Sprintf("- Câu dịch hiện tại: %q (%d từ)", translation, currentWords),
		"Chỉ trả về câu đã rút gọn, không giải thích:",
	}, "\n")
}
