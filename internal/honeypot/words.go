package honeypot

// Vocabulary for generated catalog content. Fixed tables keep generation
// byte-identical for a given ID across releases.

var categories = []string{
	"Electronics",
	"Books",
	"Home & Garden",
	"Toys",
	"Clothing",
	"Sports",
	"Automotive",
	"Office Supplies",
}

var adjectives = []string{
	"Premium", "Classic", "Compact", "Deluxe", "Essential", "Ergonomic",
	"Rugged", "Sleek", "Portable", "Professional", "Vintage", "Modern",
	"Ultra", "Heavy-Duty", "Lightweight", "Wireless", "Adjustable",
	"Foldable", "Rechargeable", "Signature", "Limited-Edition", "Everyday",
}

var materials = []string{
	"Aluminum", "Walnut", "Carbon", "Bamboo", "Stainless", "Leather",
	"Ceramic", "Titanium", "Canvas", "Oak", "Copper", "Matte",
}

var nouns = []string{
	"Organizer", "Lamp", "Speaker", "Notebook", "Backpack", "Charger",
	"Stand", "Holder", "Tumbler", "Keyboard", "Monitor", "Blanket",
	"Bottle", "Tracker", "Adapter", "Toolkit", "Planner", "Headset",
	"Grinder", "Diffuser", "Router", "Easel", "Scale", "Clock",
}

var brands = []string{
	"Northvale", "Arclight", "Fernwood", "Cobalt & Co", "Meridian",
	"Truegrain", "Halcyon", "Ironleaf", "Summitline", "Quartzon",
	"Bellforge", "Lucent Labs", "Graymark", "Vantora", "Ostrand", "Kelwyn",
}

var descriptionOpeners = []string{
	"Designed for daily use, the %s pairs durability with a refined finish.",
	"The %s brings a thoughtful balance of form and function to any space.",
	"Built to last, the %s is a favorite among discerning customers.",
	"The %s delivers dependable performance at an accessible price point.",
	"Meet the %s, engineered with attention to every detail.",
}

var descriptionMiddles = []string{
	"Its %s construction stands up to years of regular handling.",
	"A %s body keeps the weight down without sacrificing stability.",
	"The %s exterior resists scratches and everyday wear.",
	"Precision-machined %s components ensure consistent results.",
}

var descriptionClosers = []string{
	"Backed by a two-year warranty and free returns.",
	"Ships in recyclable packaging within two business days.",
	"Available in limited quantities this season.",
	"Customers rate it among the top picks in its category.",
	"Includes a quick-start guide and all required hardware.",
}

var hiddenFieldNames = []string{
	"confirm_email", "website_url", "fax_number", "company_ref",
	"secondary_phone", "promo_source", "referral_code", "account_hint",
}

var impossibleQuestions = []string{
	"What color is the number seven?",
	"How many corners does a circle have when folded twice?",
	"Which weighs more: the letter Q or the sound of rain?",
	"What is the plural of the 31st of February?",
	"How tall is the square root of yesterday?",
	"What does the silence between two Tuesdays taste like?",
}
