package ai

import (
	"fmt"
	"strings"
)

const promptPreamble = "Sen deneyimli bir rüya yorumcususun. Yanıtını Türkçe ver."

var templates = map[Mode]string{
	ModeClassic: "Bu bir rüya açıklamasıdır: %s\nBu rüyayı klasik rüya tabirlerine göre yorumla. Rüyadaki sembolleri tek tek açıkla ve her sembolün ne anlama geldiğini belirt. Sonra tüm rüyayı birleştirerek genel bir analiz yap.\nYorumun sade, anlaşılır ve detaylı olsun.",
	ModePositive:  "Bu rüya: %s\nBu rüyayı olumlu bir bakış açısıyla yorumla. Umut veren sembolleri öne çıkar, rüyayı görenin güçlü yanlarını vurgula ve sıcak bir dille bitir.",
	ModeNightmare: "Rüya: %s\nBu rüyayı bir uyarı gibi ele al. Rüyada dikkat edilmesi gereken sembolleri analiz et. Negatif çağrışımları açıkla ve olası riskleri yorumla.\nAncak kullanıcıyı korkutmadan, dikkatli olunması gereken alanlara vurgu yap.",
	ModeFreud:     "Rüya içeriği: %s\nBu rüyayı Sigmund Freud'un psikanalitik yaklaşımına göre yorumla. Bastırılmış arzular, çocukluk anıları ve bilinçaltı temaları üzerinden analiz yap.",
	ModeJung:      "Rüya: %s\nCarl Jung'un arketipsel sembollerine ve bireyselleşme sürecine göre bu rüyayı analiz et. Gölge, persona, anima gibi kavramlar çerçevesinde yorum yap.",
	ModeMystic:    "Bu rüya: %s\nRüyayı Muhyiddin-i Arabi'nin tasavvufi rüya yorumlarına benzer şekilde yorumla. Manevi boyutunu açıklayarak, rüyanın ruhsal bir mesaj taşıyıp taşımadığını analiz et.",
	ModeModern:    "Rüya: %s\nBu rüyayı, modern bir televizyon programında rüya yorumlayan ünlü bir yorumcu gibi açıkla. Yorumun hem bilgilendirici hem de halk diline uygun olsun. İçeriği günümüz yaşamı ve psikolojisiyle ilişkilendir, pratik ve anlaşılır öneriler de sun.",
	ModeShort:     "Rüya: %s\nBu rüyayı çok kısa ve öz şekilde yorumla. Birkaç cümlede özetle ve olası anlamı belirt.",
}

// Modes lists every interpretation style in display order.
func Modes() []Mode {
	return []Mode{ModeClassic, ModePositive, ModeNightmare, ModeFreud, ModeJung, ModeMystic, ModeModern, ModeShort}
}

// ParseMode normalises user input. Unknown values map to ModeClassic.
func ParseMode(raw string) Mode {
	mode := Mode(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := templates[mode]; !ok {
		return ModeClassic
	}
	return mode
}

// ResolveMode returns the mode actually used for generation.
// The gated mode only survives for profiles on the allow-list.
func ResolveMode(requested Mode, profile *Profile, allow AllowList) Mode {
	mode := ParseMode(string(requested))
	if mode == ModePositive && !allow.Allows(profile) {
		return ModeClassic
	}
	return mode
}

// BuildPrompt assembles the preamble, the optional personal context and the mode template.
// The dream text is inserted verbatim.
func BuildPrompt(dream string, mode Mode, profile *Profile) string {
	template, ok := templates[mode]
	if !ok {
		template = templates[ModeClassic]
	}

	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n")
	if clause := personalClause(profile); clause != "" {
		b.WriteString(clause)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, template, dream)
	return b.String()
}

func personalClause(profile *Profile) string {
	if profile == nil {
		return ""
	}

	parts := make([]string, 0, 3)
	if v := strings.TrimSpace(profile.Age); v != "" {
		parts = append(parts, "yaşı "+v)
	}
	if v := strings.TrimSpace(profile.Occupation); v != "" {
		parts = append(parts, "mesleği "+v)
	}
	if v := strings.TrimSpace(profile.Interests); v != "" {
		parts = append(parts, "ilgi alanları "+v)
	}
	if len(parts) == 0 {
		return ""
	}
	return "Rüyayı gören kişinin " + strings.Join(parts, ", ") + ". Yorumu bu bilgilere göre kişiselleştir."
}
