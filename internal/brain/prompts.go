package brain

import (
	"fmt"
	"strings"

	"github.com/abelbrown/emsal/internal/model"
)

// DefaultCompareCharLimit bounds each document body in a comparison prompt.
const DefaultCompareCharLimit = 8000

const chatSystemPrompt = "Sen, Türkiye hukuk sistemi konusunda uzman bir yapay zeka asistanısın. " +
	"Kullanıcının sunduğu belgeler ve analizler hakkında sorduğu sorulara, profesyonel, doğru ve net yanıtlar ver. " +
	"Yanıtlarını Markdown formatında yapılandır."

const (
	analysisContextPrefix = "İşte analiz edilen belgelerin özeti: "
	analysisFollowUp      = "Yukarıdaki analize göre..."
)

func summarizePrompt(doc model.FullDocument) string {
	var b strings.Builder
	b.WriteString("Aşağıdaki hukuk belgesini, ana argümanları, hukuki dayanakları ve varılan sonucu vurgulayarak,\n")
	b.WriteString("profesyonel ve anlaşılır bir dille özetle. Özet, belgenin özünü yansıtmalı ve\n")
	b.WriteString("bir hukuk profesyonelinin hızlıca anlayabileceği şekilde yapılandırılmalıdır.\n\n")
	fmt.Fprintf(&b, "Belge Başlığı: %s\n", doc.Title)
	fmt.Fprintf(&b, "Mahkeme: %s\n", doc.Court)
	fmt.Fprintf(&b, "Tarih: %s\n", doc.Date)
	fmt.Fprintf(&b, "Esas ve Karar No: %s\n\n", doc.CaseNumber)
	b.WriteString("Belge İçeriği:\n---\n")
	b.WriteString(doc.PageContent)
	b.WriteString("\n---\n\nLütfen sadece özet metnini döndür.\n")
	return b.String()
}

func comparePrompt(docs []model.FullDocument, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Aşağıda %d adet hukuk belgesi bulunmaktadır. Bu belgeleri karşılaştırarak aşağıdaki maddeleri analiz et:\n\n", len(docs))
	b.WriteString("1. **Benzerlikler:** Belgelerdeki benzer hukuki argümanları, olayları veya sonuçları belirt.\n")
	b.WriteString("2. **Farklılıklar:** Belgeler arasındaki temel farkları (hukuki yorum, olay örgüsü, sonuç vb.) vurgula.\n")
	b.WriteString("3. **Ortak Tema/İlke:** Belgelerin tartıştığı ortak hukuki tema veya ilkeyi tanımla.\n")
	b.WriteString("4. **Sonuç:** Karşılaştırmalı bir analiz sunarak belgelerin birbirine göre konumunu özetle.\n\n")
	b.WriteString("Analizini Markdown formatında, başlıklar ve listeler kullanarak yapılandır.\n")

	for i, doc := range docs {
		n := i + 1
		fmt.Fprintf(&b, "\n--- Belge %d ---\n", n)
		fmt.Fprintf(&b, "Başlık: %s\n", doc.Title)
		fmt.Fprintf(&b, "Mahkeme: %s\n", doc.Court)
		fmt.Fprintf(&b, "Tarih: %s\n", doc.Date)
		fmt.Fprintf(&b, "Esas ve Karar No: %s\n", doc.CaseNumber)
		fmt.Fprintf(&b, "İçerik: %s...\n", truncateRunes(doc.PageContent, limit))
		fmt.Fprintf(&b, "--- Bitiş Belge %d ---\n", n)
	}
	return b.String()
}

// chatHistory converts the thread so far into provider turns. The first
// question about an analysis is preceded by the analysis itself.
func chatHistory(analysis string, thread []model.ChatMessage) []Turn {
	turns := make([]Turn, 0, len(thread)+2)
	if len(thread) == 0 && analysis != "" {
		turns = append(turns,
			Turn{Role: model.RoleModel, Text: analysisContextPrefix + analysis},
			Turn{Role: model.RoleUser, Text: analysisFollowUp},
		)
	}
	for _, msg := range thread {
		turns = append(turns, Turn{Role: msg.Role, Text: msg.Text})
	}
	return turns
}

// truncateRunes cuts s to at most limit runes so multi-byte Turkish
// characters are never split. A non-positive limit disables truncation.
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
