package leekduck

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var trailingQuantity = regexp.MustCompile(`\s?×\d+$`)

// ParseResearch extracts field research tasks per category, tasks keep their page order and
// tasks without any reward are dropped.
func ParseResearch(doc *goquery.Document) Research {
	research := Research{}
	doc.Find("div.task-category").Each(func(_ int, category *goquery.Selection) {
		title := text(category.Find("h2").First())
		if title == "" {
			return
		}

		var tasks []ResearchTask
		category.Find("li.task-item").Each(func(_ int, item *goquery.Selection) {
			task := text(item.Find("span.task-text").First())
			if task == "" {
				return
			}

			var rewards []Reward
			item.Find("ul.reward-list > li.reward").Each(func(_ int, reward *goquery.Selection) {
				if r, ok := parseReward(reward); ok {
					rewards = append(rewards, r)
				}
			})
			if len(rewards) == 0 {
				return
			}
			tasks = append(tasks, ResearchTask{Task: task, Rewards: rewards})
		})
		if _, ok := research[title]; !ok {
			research[title] = []ResearchTask{}
		}
		research[title] = append(research[title], tasks...)
	})
	return research
}

func parseReward(reward *goquery.Selection) (Reward, bool) {
	label := reward.Find("span.reward-label").First()
	if label.Length() == 0 {
		return Reward{}, false
	}
	labelText := text(label)
	rewardType := reward.AttrOr("data-reward-type", "unknown")
	asset := strings.TrimSpace(reward.Find("img.reward-image").First().AttrOr("src", ""))

	if rewardType == RewardEncounter {
		shiny := hasShinyIcon(reward)
		return Reward{
			Type:           RewardEncounter,
			Name:           labelText,
			ShinyAvailable: &shiny,
			CPRange:        ParseCPRange(text(reward.Find("span.cp-values").First())),
			AssetURL:       asset,
		}, true
	}

	quantity := 1
	if q := reward.Find("div.quantity").First(); q.Length() > 0 {
		quantity = ParseQuantity(text(q))
	}
	return Reward{
		Type:     rewardType,
		Name:     strings.TrimSpace(trailingQuantity.ReplaceAllString(labelText, "")),
		Quantity: quantity,
		AssetURL: asset,
	}, true
}
