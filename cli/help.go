package cli

import (
	"sort"
	"strings"
)

var commandHelp = map[string]string{
	"login": `Syntax: login [email] [--remember]
Logs in. The password is read without echo. --remember keeps the token across restarts.`,
	"register": `Syntax: register [email]
Creates an account. Prompts for the password twice and shows its strength.`,
	"logout": `Syntax: logout
Forgets the token, including any remembered one.`,
	"status": `Syntax: status
Shows the session state and the loaded dataset.`,
	"search": `Syntax: search <keyword>
Scrapes and analyses a keyword. When logged in the saved products replace the scraped ones.
Example: search "iphone 13"`,
	"url": `Syntax: url <listing-url>
Like search, but scrapes a listing URL.`,
	"price": `Syntax: price <lo> <hi>
Narrows the price range. Items without a price are always shown.`,
	"rating": `Syntax: rating <lo> <hi>
Narrows the rating range. Unrated items count as 0.`,
	"discount": `Syntax: discount on|off
Shows only discounted items when on.`,
	"show": `Syntax: show [n]
Lists the first n items of the current view (default 20).`,
	"stats": `Syntax: stats
Summarises the current view: price quantiles, rating average and a price histogram.`,
	"export": `Syntax: export <file> [csv|json|dual]
Writes the current view to a file.`,
	"help": `Syntax: help [command]`,
	"exit": `Syntax: exit
Leaves the program.`,
}

func (c *Console) printHelp(args []string) {
	if len(args) > 0 {
		if help, ok := commandHelp[strings.ToLower(args[0])]; ok {
			c.println(help)
			return
		}
		c.printf("Unknown command: %s\n", args[0])
		return
	}

	names := make([]string, 0, len(commandHelp))
	for name := range commandHelp {
		names = append(names, name)
	}
	sort.Strings(names)
	c.println("Available commands:")
	for _, name := range names {
		c.printf("  %s\n", name)
	}
	c.println("\nUse 'help <command>' for details.")
}
