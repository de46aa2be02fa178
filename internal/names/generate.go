package names

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultPool is the label pool used by the offline table generator
var DefaultPool = []string{
	"Jean", "Marie", "Luc", "Sophie", "Paul", "Emma", "Louis", "Julie", "Hugo", "Chloé",
	"Lucas", "Léa", "Maxime", "Camille", "Nathan", "Sarah", "Tom", "Manon", "Enzo", "Lina",
	"Noah", "Jade", "Léo", "Anna", "Gabriel", "Eva", "Raphaël", "Zoé", "Arthur", "Alice",
	"Mathis", "Léna", "Ethan", "Lou", "Maël", "Rose", "Sacha", "Mila", "Axel", "Nina",
	"Jules", "Louna", "Adam", "Ambre", "Aaron", "Inès", "Victor", "Iris", "Martin", "Maya",
	"Liam", "Olivia", "Oliver", "Ava", "Elijah", "Isabella", "James", "Charlotte", "William", "Amelia",
	"Benjamin", "Mia", "Henry", "Harper", "Theodore", "Evelyn", "Jack", "Abigail", "Levi", "Ella",
	"Alexander", "Elizabeth", "Mateo", "Camila", "Daniel", "Luna", "Michael", "Sofia", "Mason", "Aria",
	"Sebastian", "Scarlett", "Owen", "Penelope", "Samuel", "Layla", "Jacob", "Victoria", "Asher", "Madison",
	"Aiden", "Eleanor", "John", "Grace", "Joseph", "Nora", "Wyatt", "Riley", "David", "Zoey",
}

// Assign labels ids by position: the i-th id gets pool[i], and ids past the
// end of the pool get "Name<i+1>". Duplicate ids keep their first label.
func Assign(ids []string, pool []string) map[string]string {
	mapping := make(map[string]string, len(ids))
	for i, id := range ids {
		if id == "" {
			continue
		}
		if _, seen := mapping[id]; seen {
			continue
		}
		if i < len(pool) && pool[i] != "" {
			mapping[id] = pool[i]
		} else {
			mapping[id] = fmt.Sprintf("Name%d", i+1)
		}
	}
	return mapping
}

// WriteFile stores mapping as an indented JSON object
func WriteFile(path string, mapping map[string]string) error {
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding bike names: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing bike names file: %w", err)
	}
	return nil
}
