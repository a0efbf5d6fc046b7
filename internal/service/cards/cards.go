// Package cards 是词卡提供者：按难度和语言给出一副乱序的词卡。
// 词卡应当是能被表演出来的单词或极短的短语。
package cards

import (
	"math/rand/v2"
)

const (
	LANG_EN = "en"
	LANG_HE = "he"

	DIFFICULTY_EASY   = "easy"
	DIFFICULTY_MEDIUM = "medium"
	DIFFICULTY_HARD   = "hard"
)

// 按语言、难度组织的内置词库
var cardSets = map[string]map[string][]string{
	LANG_EN: {
		DIFFICULTY_EASY: {
			// 动物
			"Dog", "Cat", "Elephant", "Snake", "Monkey", "Bird", "Fish", "Rabbit", "Lion", "Chicken",
			"Frog", "Bear", "Horse", "Penguin", "Kangaroo", "Duck", "Pig", "Cow", "Sheep", "Goat",
			"Mouse", "Tiger", "Zebra", "Dolphin", "Shark", "Butterfly", "Spider", "Bee", "Ant", "Turtle",
			"Giraffe", "Panda", "Koala", "Gorilla", "Sloth", "Hedgehog", "T-Rex",
			// 动作
			"Sleeping", "Eating", "Dancing", "Running", "Crying", "Laughing", "Jumping", "Swimming", "Cooking", "Reading",
			"Writing", "Singing", "Sneezing", "Yawning", "Clapping", "Waving", "Climbing", "Falling", "Crawling", "Hugging",
			"Taking a Selfie", "Gaming", "Typing", "Vacuuming", "Yoga", "High Five", "Texting",
			// 物品
			"Phone", "Chair", "Clock", "Mirror", "Umbrella", "Camera", "Guitar", "Balloon", "Candle", "Hammer",
			"Book", "Pencil", "Scissors", "Key", "Door", "Ball", "Hat", "Glasses", "Watch", "Ladder",
			"Toilet Paper", "Remote Control", "Pizza", "Burger", "Ice Cream", "Banana", "Laptop",
			// 职业与角色
			"Doctor", "Teacher", "Chef", "Police", "Firefighter", "Pilot", "Dentist", "Farmer", "Magician", "Astronaut",
			"Baby", "Robot", "King", "Queen", "Pirate", "Cowboy", "Ninja", "Clown", "Witch", "Ghost",
			"Vampire", "Zombie", "Superhero",
			// 情绪
			"Happy", "Sad", "Angry", "Scared", "Surprised", "Tired", "Hungry", "Cold", "Hot",
		},
		DIFFICULTY_MEDIUM: {
			// 动物
			"Octopus", "Peacock", "Bat", "Jellyfish", "Scorpion", "Chameleon", "Flamingo", "Hippo", "Rhino", "Camel",
			"Raccoon", "Skunk", "Porcupine", "Lobster", "Starfish", "Seahorse", "Beaver", "Otter", "Ostrich", "Armadillo",
			// 具体动作
			"Surfing", "Bowling", "Skiing", "Boxing", "Fishing", "Juggling", "Hiccupping", "Snoring", "Tiptoeing", "Shivering",
			"Winking", "Fainting", "Whistling", "Limping", "Stumbling", "Spinning", "Marching", "Galloping", "Balancing", "Saluting",
			"Stepping on Lego", "Brain Freeze", "Stubbing Toe", "Paper Cut", "Walking a Dog", "Changing a Diaper",
			"Parallel Parking", "Riding a Rollercoaster", "Opening a stuck jar", "Flipping a pancake", "Eating Spaghetti",
			"Using Chopsticks", "Folding a fitted sheet", "Trying to kill a fly",
			// 物品与概念
			"Toothbrush", "Blender", "Seesaw", "Trampoline", "Telescope", "Microwave", "Chandelier", "Skateboard", "Elevator",
			"Escalator", "Treadmill", "Fireplace", "Fountain", "Trophy", "Crown", "Shield", "Sword", "Anchor", "Compass",
			"Stethoscope", "Parachute", "Surfboard", "Snowboard", "Lightsaber", "Magic Carpet", "UFO", "Time Machine", "Crystal Ball",
			// 角色
			"Mummy", "Werewolf", "Mermaid", "Mime", "Jester", "Knight", "Samurai", "Viking", "Gladiator", "Pharaoh",
			"Caveman", "Sheriff", "Spy", "Detective", "Santa Claus", "Tooth Fairy", "Statue of Liberty", "Batman", "Spider-Man",
			// 情绪与状态
			"Dizzy", "Sleepy", "Excited", "Bored", "Nervous", "Confused", "Embarrassed", "Proud", "Jealous", "Grumpy",
			// 运动
			"Tennis", "Golf", "Hockey", "Baseball", "Basketball", "Volleyball", "Archery", "Fencing", "Wrestling",
		},
		DIFFICULTY_HARD: {
			// 抽象概念
			"Shadow", "Echo", "Gravity", "Invisible", "Melting", "Shrinking", "Growing", "Floating", "Sinking", "Evaporating",
			"Freezing", "Exploding", "Vibrating", "Morphing", "Teleporting", "Time travel", "Déjà vu", "Amnesia", "Insomnia",
			"Claustrophobia", "Procrastination", "Nostalgia", "Sarcasm", "Karma", "Telepathy", "Hypnosis", "Mirage", "Camouflage",
			// 难表演的场景
			"Walking on the Moon", "Caught in Quicksand", "Stuck in an Elevator", "Losing Phone Signal", "Forgetting a Name",
			"Awkward Silence", "Slow Motion Replay", "Buffering Video", "Autocorrect Fail", "Monday Morning",
			"Waiting in Line", "Out of Battery", "Wi-Fi Password", "Spoiler Alert", "Plot Twist",
			// 成语与习语
			"Break a Leg", "Piece of Cake", "Cold Feet", "Spill the Beans", "Under the Weather", "Hit the Sack",
			"Couch Potato", "Early Bird", "Night Owl", "Third Wheel",
		},
	},
	LANG_HE: {
		DIFFICULTY_EASY: {
			"כלב", "חתול", "פיל", "נחש", "קוף", "ציפור", "דג", "ארנב", "אריה", "תרנגולת",
			"לישון", "לאכול", "לרקוד", "לרוץ", "לבכות", "לצחוק", "לקפוץ", "לשחות", "לבשל", "לקרוא",
			"טלפון", "כיסא", "שעון", "מראה", "מטרייה", "מצלמה", "גיטרה", "בלון", "נר", "פטיש",
			"רופא", "מורה", "שף", "שוטר", "כבאי", "טייס", "תינוק", "רובוט", "מלך", "מלכה",
			"שמח", "עצוב", "כועס", "מפוחד", "מופתע", "עייף", "רעב", "קר", "חם",
		},
		DIFFICULTY_MEDIUM: {
			"תמנון", "טווס", "עטלף", "מדוזה", "עקרב", "זיקית", "פלמינגו", "היפופוטם", "קרנף", "גמל",
			"גלישה", "באולינג", "סקי", "אגרוף", "דיג", "להטוטנות", "שיהוק", "נחירה", "רעד", "קריצה",
			"מברשת שיניים", "בלנדר", "נדנדה", "טרמפולינה", "טלסקופ", "מיקרוגל", "נברשת", "סקייטבורד", "מעלית", "הליכון",
			"מומיה", "איש זאב", "בת ים", "פנטומימאי", "ליצן חצר", "אביר", "סמוראי", "ויקינג", "גלדיאטור", "פרעה",
			"סחרחורת", "מנומנם", "נרגש", "משועמם", "לחוץ", "מבולבל", "נבוך", "גאה", "מקנא", "רגזן",
		},
		DIFFICULTY_HARD: {
			"צל", "הד", "כוח משיכה", "בלתי נראה", "נמס", "מתכווץ", "גדל", "מרחף", "שוקע", "מתאדה",
			"דז'ה וו", "אמנזיה", "נדודי שינה", "קלסטרופוביה", "דחיינות", "נוסטלגיה", "סרקזם", "קארמה", "טלפתיה", "היפנוזה",
			"הליכה על הירח", "תקוע במעלית", "שכחת שם", "שתיקה מביכה", "הילוך איטי", "סרטון נטען", "רגע ספוילר", "בוקר יום שני",
		},
	},
}

// tierFor 选出指定语言和难度的词表。
// 未知语言回退到英语，未知难度回退到中等难度。
func tierFor(difficulty, language string) []string {
	langSet, ok := cardSets[language]
	if !ok {
		langSet = cardSets[LANG_EN]
	}

	tier, ok := langSet[difficulty]
	if !ok {
		tier = langSet[DIFFICULTY_MEDIUM]
	}

	return tier
}

// GetShuffledDeck 返回一副乱序的词卡，排除 excluded 中完全匹配的词。
func GetShuffledDeck(difficulty, language string, excluded []string) []string {
	tier := tierFor(difficulty, language)

	excludedSet := make(map[string]struct{}, len(excluded))
	for _, w := range excluded {
		excludedSet[w] = struct{}{}
	}

	deck := make([]string, 0, len(tier))
	for _, w := range tier {
		if _, banned := excludedSet[w]; banned {
			continue
		}
		deck = append(deck, w)
	}

	rand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	return deck
}

// Languages 返回支持的语言列表。
func Languages() []string {
	langs := make([]string, 0, len(cardSets))
	for lang := range cardSets {
		langs = append(langs, lang)
	}

	return langs
}

// AllCards 返回指定语言的全部词卡（不分难度，不乱序）。
func AllCards(language string) []string {
	langSet, ok := cardSets[language]
	if !ok {
		langSet = cardSets[LANG_EN]
	}

	all := make([]string, 0)
	for _, tier := range langSet {
		all = append(all, tier...)
	}

	return all
}
