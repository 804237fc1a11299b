package chat_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"bartuchat.app/server/internal/chat"
)

var _ = Describe("SplitThinking", func() {
	It("returns nil thinking for plain text", func() {
		thinking, answer := chat.SplitThinking("just an answer")
		Expect(thinking).To(BeNil())
		Expect(answer).To(Equal("just an answer"))
	})

	It("extracts a single thinking block", func() {
		thinking, answer := chat.SplitThinking("<think>let me see</think>The answer is 4.")
		Expect(thinking).NotTo(BeNil())
		Expect(*thinking).To(Equal("let me see"))
		Expect(answer).To(Equal("The answer is 4."))
	})

	It("joins multiple blocks with a newline", func() {
		thinking, answer := chat.SplitThinking("<think>first</think>mid<thinking>second</thinking>end")
		Expect(thinking).NotTo(BeNil())
		Expect(*thinking).To(Equal("first\nsecond"))
		Expect(answer).To(Equal("midend"))
	})

	It("accepts all tag synonyms", func() {
		for _, tag := range []string{"think", "thought", "thinking"} {
			thinking, answer := chat.SplitThinking("<" + tag + ">inner</" + tag + ">rest")
			Expect(thinking).NotTo(BeNil(), "tag %q", tag)
			Expect(*thinking).To(Equal("inner"))
			Expect(answer).To(Equal("rest"))
		}
	})

	It("matches tags case-insensitively", func() {
		thinking, answer := chat.SplitThinking("<THINK>loud</THINK>quiet")
		Expect(thinking).NotTo(BeNil())
		Expect(*thinking).To(Equal("loud"))
		Expect(answer).To(Equal("quiet"))
	})

	It("matches across newlines", func() {
		thinking, _ := chat.SplitThinking("<think>line one\nline two</think>done")
		Expect(thinking).NotTo(BeNil())
		Expect(*thinking).To(Equal("line one\nline two"))
	})

	It("returns nil thinking when the only block is empty", func() {
		thinking, answer := chat.SplitThinking("<think></think>answer")
		Expect(thinking).To(BeNil())
		Expect(answer).To(Equal("answer"))
	})

	It("leaves an unterminated tag in the answer", func() {
		thinking, answer := chat.SplitThinking("<think>still going")
		Expect(thinking).To(BeNil())
		Expect(answer).To(Equal("<think>still going"))
	})

	It("trims whitespace from the answer", func() {
		_, answer := chat.SplitThinking("<think>x</think>\n\n  padded  ")
		Expect(answer).To(Equal("padded"))
	})

	It("handles the whole buffer being a thinking block", func() {
		thinking, answer := chat.SplitThinking("<think>only thoughts</think>")
		Expect(thinking).NotTo(BeNil())
		Expect(*thinking).To(Equal("only thoughts"))
		Expect(answer).To(Equal(""))
	})
})
