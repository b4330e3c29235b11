package bib

// Months holds the month macros standard styles define: jan through dec
// expand to the full English month names.
var Months = Macros{
	"jan": monthName("January"),
	"feb": monthName("February"),
	"mar": monthName("March"),
	"apr": monthName("April"),
	"may": monthName("May"),
	"jun": monthName("June"),
	"jul": monthName("July"),
	"aug": monthName("August"),
	"sep": monthName("September"),
	"oct": monthName("October"),
	"nov": monthName("November"),
	"dec": monthName("December"),
}

func monthName(s string) Literal { return NewLiteral(NewText(s)) }
