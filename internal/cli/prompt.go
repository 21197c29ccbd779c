package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/agentx-labs/rulesync/internal/catalog"
	"github.com/agentx-labs/rulesync/internal/variant"
)

// noneChoice is the menu entry that installs no file of a category.
const noneChoice = "none"

// selectFromList presents a numbered list and returns the selected index.
func selectFromList(reader *bufio.Reader, w io.Writer, prompt string, items []string) (int, error) {
	fmt.Fprintf(w, "\n%s\n", prompt)
	for i, item := range items {
		fmt.Fprintf(w, "  %d) %s\n", i+1, item)
	}
	fmt.Fprintf(w, "Enter number [1-%d]: ", len(items))

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return 0, fmt.Errorf("reading selection: %w", err)
	}

	num, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || num < 1 || num > len(items) {
		return 0, fmt.Errorf("invalid selection %q: enter a number between 1 and %d", strings.TrimSpace(line), len(items))
	}
	return num - 1, nil
}

// selectManyFromList presents a numbered list and accepts a comma-separated
// list of numbers, or "all". Indexes are returned in list order.
func selectManyFromList(reader *bufio.Reader, w io.Writer, prompt string, items []string) ([]int, error) {
	fmt.Fprintf(w, "\n%s\n", prompt)
	for i, item := range items {
		fmt.Fprintf(w, "  %d) %s\n", i+1, item)
	}
	fmt.Fprintf(w, "Enter numbers separated by commas, or 'all': ")

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("reading selection: %w", err)
	}
	line = strings.TrimSpace(line)

	picked := make([]bool, len(items))
	if strings.EqualFold(line, "all") {
		for i := range picked {
			picked[i] = true
		}
	} else {
		for _, part := range strings.Split(line, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			num, err := strconv.Atoi(part)
			if err != nil || num < 1 || num > len(items) {
				return nil, fmt.Errorf("invalid selection %q: enter numbers between 1 and %d", part, len(items))
			}
			picked[num-1] = true
		}
	}

	var out []int
	for i, ok := range picked {
		if ok {
			out = append(out, i)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no items selected")
	}
	return out, nil
}

// promptTechnologies asks which technologies to install.
func promptTechnologies(reader *bufio.Reader, w io.Writer, cat *catalog.Catalog) ([]string, error) {
	techs := cat.Technologies()
	if len(techs) == 0 {
		return nil, fmt.Errorf("no technologies found in %s", cat.Root())
	}

	items := make([]string, len(techs))
	for i, t := range techs {
		items[i] = t.Name
		if t.Description != "" {
			items[i] += " - " + t.Description
		}
	}

	idx, err := selectManyFromList(reader, w, "Select technologies:", items)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(idx))
	for i, n := range idx {
		names[i] = techs[n].Name
	}
	return names, nil
}

// promptChoices asks for every variant category of techs that preset does
// not already decide, and returns preset extended with the answers.
func promptChoices(reader *bufio.Reader, w io.Writer, cat *catalog.Catalog, techs []string, preset map[string]variant.Selection) (map[string]variant.Selection, error) {
	out := make(map[string]variant.Selection, len(preset))
	for tech, sel := range preset {
		out[tech] = variant.Merge(nil, sel)
	}

	for _, name := range techs {
		tech, ok := cat.Lookup(name)
		if !ok {
			continue
		}
		for _, category := range tech.VariantCategories() {
			if _, decided := out[name][category]; decided {
				continue
			}
			options := append(append([]string(nil), tech.Variants[category]...), noneChoice)
			idx, err := selectFromList(reader, w, fmt.Sprintf("Select %s %s:", name, category), options)
			if err != nil {
				return nil, err
			}
			choice := options[idx]
			if choice == noneChoice {
				choice = variant.None
			}
			if out[name] == nil {
				out[name] = variant.Selection{}
			}
			out[name][category] = choice
		}
	}
	return out, nil
}

// parseChoices parses --choice values of the form tech/category=value.
// The value "none" installs no file of the category.
func parseChoices(values []string) (map[string]variant.Selection, error) {
	out := make(map[string]variant.Selection)
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		tech, category, ok2 := strings.Cut(key, "/")
		if !ok || !ok2 || tech == "" || category == "" || value == "" {
			return nil, fmt.Errorf("invalid --choice %q: expected tech/category=value", v)
		}
		if value == noneChoice {
			value = variant.None
		}
		if out[tech] == nil {
			out[tech] = variant.Selection{}
		}
		out[tech][category] = value
	}
	return out, nil
}
