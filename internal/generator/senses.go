package generator

import (
	"fmt"

	"biblos/internal/store"
)

// senseSet holds the four classical senses for one book category
type senseSet struct {
	literal      string
	allegorical  string
	tropological string
	anagogical   string
}

// categoryTemplates carries the fallback fourfold-sense text per book
// category. Static reference data; the historical set is the default
// for unknown categories.
var categoryTemplates = map[string]senseSet{
	store.CategoryPentateuch: {
		literal:      "Foundational Torah instruction establishing covenantal patterns that shape Israel's identity and relationship with YHWH through specific command, narrative context, and theological significance.",
		allegorical:  "Prefigures Christ's redemptive work through covenant pattern, with specific elements serving as types finding fulfillment in His person, offices, and saving acts.",
		tropological: "Forms the reader in habits of covenant fidelity, shaping practices of reverence, obedience, and communal responsibility that reflect identity as God's people called to holiness.",
		anagogical:   "Orients hope toward new creation, with foundational patterns finding ultimate fulfillment in the eternal state where God dwells with His people.",
	},
	store.CategoryGospel: {
		literal:      "Gospel narrative revealing Christ's identity and mission through specific action, teaching, or encounter that demonstrates the kingdom of God's presence and invitation.",
		allegorical:  "Reveals Christ directly, with each detail serving theological purpose in presenting His identity, mission, and saving significance for all humanity.",
		tropological: "Forms disciples in kingdom life, with Jesus' words and actions providing the pattern for faithful response to God's grace.",
		anagogical:   "Points toward the consummation of Christ's kingdom, when all things will be gathered up in Him and God's reign will be complete.",
	},
	store.CategoryPoetic: {
		literal:      "Poetic expression of human experience before God through metaphor, parallelism, and emotional language that invites reader participation in theological reflection and worship.",
		allegorical:  "Prefigures Christ as divine Wisdom and the pattern of righteous suffering, with characteristics and work fulfilled in Him who is the wisdom of God made manifest.",
		tropological: "Shapes the reader's emotional and spiritual life, providing language for prayer, lament, praise, and the full range of human experience before God.",
		anagogical:   "Anticipates the eternal worship of heaven, where all creation joins in praise of the Lamb upon the throne.",
	},
	store.CategoryMajorProphet: {
		literal:      "Prophetic oracle addressing Israel's historical situation with divine judgment, promise, and call to repentance within the covenant relationship.",
		allegorical:  "Anticipates Christ as the Suffering Servant, Branch of David, and eschatological deliverer who fulfills Israel's prophetic hope.",
		tropological: "Calls the reader to repentance, justice, and faithful living in light of God's coming judgment and redemption.",
		anagogical:   "Points toward the Day of the Lord, final judgment, and the establishment of God's eternal kingdom.",
	},
	store.CategoryMinorProphet: {
		literal:      "Concentrated prophetic message addressing specific historical circumstances with intensity and urgency.",
		allegorical:  "Contains Christological themes concentrated in brief, powerful imagery that finds fulfillment in Christ's person and work.",
		tropological: "Delivers urgent moral summons to covenant faithfulness in concise, memorable form.",
		anagogical:   "Announces coming divine intervention and ultimate restoration in compressed, powerful imagery.",
	},
	store.CategoryHistorical: {
		literal:      "Historical narrative recounting Israel's experience of God's faithfulness and judgment within the covenant relationship.",
		allegorical:  "Provides typological patterns fulfilled in Christ and His Church, with key figures prefiguring aspects of Christ's person and work.",
		tropological: "Offers models of faith and failure from which readers learn patterns of faithful living.",
		anagogical:   "Points toward the ultimate kingdom where God's purposes for His people reach completion.",
	},
	store.CategoryPauline: {
		literal:      "Apostolic instruction addressing specific ecclesial situations with theological depth and pastoral care.",
		allegorical:  "Explicates the mystery of Christ hidden for ages and now revealed in the gospel.",
		tropological: "Provides direct ethical instruction for Christian living, grounded in the indicative of grace.",
		anagogical:   "Articulates hope in Christ's return and the resurrection of the dead.",
	},
	store.CategoryGeneralEpistle: {
		literal:      "Catholic instruction addressing the universal Church with practical wisdom and theological grounding.",
		allegorical:  "Interprets Christ's significance for the whole Church across cultural and temporal boundaries.",
		tropological: "Provides wisdom for Christian living applicable to all believers in all circumstances.",
		anagogical:   "Sustains hope in final vindication and entrance into the eternal kingdom.",
	},
	store.CategoryApocalyptic: {
		literal:      "Visionary revelation disclosing divine perspective on history and its consummation through symbolic imagery.",
		allegorical:  "Reveals Christ in cosmic triumph, the Lamb who was slain and who conquers all opposing powers.",
		tropological: "Calls to patient endurance and faithful witness in the face of persecution and cosmic conflict.",
		anagogical:   "Depicts the ultimate destiny of creation: new heaven and earth, the marriage supper of the Lamb, eternal communion with God.",
	},
	store.CategoryActs: {
		literal:      "Historical narrative of the Church's expansion under the Spirit's guidance from Jerusalem to Rome.",
		allegorical:  "Shows Christ continuing His work through His body, the Church, empowered by His Spirit.",
		tropological: "Provides models for faithful witness, community life, and Spirit-led mission.",
		anagogical:   "Points toward the gospel's ultimate reach to all nations before Christ's return.",
	},
	store.CategoryDeuterocanon: {
		literal:      "Intertestamental wisdom and history illuminating the period between the testaments.",
		allegorical:  "Provides additional types and themes finding fulfillment in Christ.",
		tropological: "Offers wisdom for righteous living in the face of persecution and cultural pressure.",
		anagogical:   "Strengthens hope in resurrection, judgment, and divine vindication.",
	},
}

func templatesFor(category string) senseSet {
	if t, ok := categoryTemplates[category]; ok {
		return t
	}
	return categoryTemplates[store.CategoryHistorical]
}

// generateSenses produces the four senses for a verse
func generateSenses(v *store.Verse) (literal, allegorical, tropological, anagogical string) {
	t := templatesFor(v.Category)
	literal = fmt.Sprintf("%s: %s", v.Ref, t.literal)
	allegorical = fmt.Sprintf("%s: %s", v.Ref, t.allegorical)
	tropological = fmt.Sprintf("%s: %s", v.Ref, t.tropological)
	anagogical = fmt.Sprintf("%s: %s", v.Ref, t.anagogical)
	return literal, allegorical, tropological, anagogical
}
