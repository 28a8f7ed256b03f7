package pipeline

import "math/rand/v2"

func pick(list []string) string {
	return list[rand.IntN(len(list))]
}

// prisonPhrases take the user and the cell channel.
var prisonPhrases = []string{
	"🔒 <@%s>, prisoners speak in <#%s> and nowhere else.",
	"🚷 <@%s> tried to sneak out of <#%s>. Back inside.",
	"⛓️ <@%s>, the bars of <#%s> are there for a reason.",
	"🪑 <@%s>, sit down. Your corner is <#%s>.",
	"📢 <@%s> was caught shouting through the walls. Stay in <#%s>.",
}

// enforcePhrases take the user, the missing words and the offense number.
var enforcePhrases = []string{
	"🫦 <@%s>, you forgot %s. Offense #%d.",
	"📖 <@%s>, every message needs %s. That makes #%d.",
	"🎀 <@%s> left out %s. Say it properly next time. (#%d)",
	"🧼 <@%s>, where is %s? Offense #%d on record.",
}

// banPhrases take the user, the forbidden words and the offense number.
var banPhrases = []string{
	"🚫 <@%s>, %s is not yours to say. Offense #%d.",
	"🔇 <@%s> said %s. That was forbidden. (#%d)",
	"🧂 <@%s>, watch your mouth: %s. Offense #%d.",
	"📸 <@%s> caught saying %s. Filed as offense #%d.",
}

// linesDonePhrases take the user.
var linesDonePhrases = []string{
	"✅ <@%s> finished their lines. Good.",
	"📜 <@%s> wrote every last line. You may go.",
	"🎓 <@%s> completed the assignment. Lesson learned, hopefully.",
}
