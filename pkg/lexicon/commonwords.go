package lexicon

// defaultCommonWords lists long but everyday words that readers do not
// need simplified. Only words of 8+ letters matter here; the discovery
// scan never consults the set for shorter words.
// This list can be extended as needed.
var defaultCommonWords = []string{
	"absolutely", "according", "actually", "addition", "agreement",
	"altogether", "american", "anything", "anywhere", "available",
	"beautiful", "beginning", "business", "carefully", "certainly",
	"children", "community", "companies", "completely", "computer",
	"consider", "continue", "countries", "decision", "definitely",
	"described", "development", "different", "difficult", "direction",
	"discussion", "economic", "education", "especially", "everybody",
	"everyone", "everything", "everywhere", "expected", "experience",
	"families", "favorite", "finally", "following", "generally",
	"government", "happened", "hospital", "hundreds", "immediately",
	"important", "including", "increase", "information", "interest",
	"interested", "interesting", "language", "learning", "movement",
	"national", "necessary", "obviously", "ourselves", "personal",
	"position", "possible", "probably", "problems", "products",
	"programs", "question", "questions", "remember", "research",
	"security", "sentence", "services", "situation", "somebody",
	"someone", "something", "sometimes", "somewhere", "standing",
	"students", "suddenly", "themselves", "thousands", "together",
	"tomorrow", "understand", "understood", "university", "watching",
	"whatever", "whenever", "wherever", "wonderful", "yesterday",
	"yourself",
}
