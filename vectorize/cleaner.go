package vectorize

import (
	"regexp"
	"strings"
	"unicode"
)

// BasicCleaner 是 core.TextCleaner 的默认实现：
// 小写化、去 URL/邮箱、去标点、去数字、压缩空白。
// 词形还原等更重的清洗交给外部协作方（例如独立的预处理服务）。
type BasicCleaner struct{}

var (
	reURL   = regexp.MustCompile(`(?:https?://|www\.)\S+`)
	reEmail = regexp.MustCompile(`\S+@\S+`)
)

func (BasicCleaner) Clean(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = reURL.ReplaceAllString(text, " ")
	text = reEmail.ReplaceAllString(text, " ")

	var b strings.Builder
	b.Grow(len(text))
	lastSpace := false
	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			// 标点、数字、空白统一折叠为单个空格
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokenize 清洗后按空白切词，过滤停用词与单字符词。
func Tokenize(cleaner interface{ Clean(string) string }, text string) []string {
	cleaned := cleaner.Clean(text)
	if cleaned == "" {
		return nil
	}
	fields := strings.Fields(cleaned)
	out := make([]string, 0, len(fields))
	for _, tok := range fields {
		if len(tok) < 2 {
			continue
		}
		if stopwords[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// WithBigrams 在 unigram 序列上追加相邻 bigram（以空格连接），
// 与 sklearn 的 ngram_range=(1,2) 行为一致。
func WithBigrams(tokens []string) []string {
	if len(tokens) < 2 {
		return tokens
	}
	out := make([]string, 0, 2*len(tokens)-1)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}
