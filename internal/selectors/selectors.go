// Package selectors builds the data-cy and component-library selectors the
// suites address. Keep every attribute name here so a renamed attribute is
// a one-line change.
package selectors

import (
	"fmt"
	"strings"
)

// Cy selects elements by data-cy value.
func Cy(name string) string {
	return fmt.Sprintf(`[data-cy="%s"]`, name)
}

// CyPrefix selects elements whose data-cy starts with prefix.
func CyPrefix(prefix string) string {
	return fmt.Sprintf(`[data-cy^="%s"]`, prefix)
}

// PCName selects a UI-library element by data-pc-name.
func PCName(name string) string {
	return fmt.Sprintf(`[data-pc-name="%s"]`, name)
}

// PCSection selects a UI-library element by data-pc-section.
func PCSection(name string) string {
	return fmt.Sprintf(`[data-pc-section="%s"]`, name)
}

// Within scopes child selectors under parent.
func Within(parent string, children ...string) string {
	return strings.Join(append([]string{parent}, children...), " ")
}

// Shared controls.
var (
	SaveDialogBtn   = Cy("saveDialogBtn")
	CloseDialogBtn  = Cy("closeDialogBtn")
	ConfirmBtn      = Cy("confirmBtn")
	TotalRows       = Cy("skillsBTableTotalRows")
	PaginatorNext   = PCName("pcnextpagebutton")
	PaginatorPrev   = PCName("pcprevpagebutton")
	TableRows       = "tbody tr"
	TableCells      = "td"
	SortControl     = Cy("sortControlHandle")
	PageHeader      = Cy("pageHeader")
	BreadcrumbBar   = Cy("breadcrumb-bar")
	SettingsButton  = Cy("settings-button")
	DarkModeToggle  = Cy("darkModeSwitch")
	LoginUsername   = "#username"
	LoginPassword   = "#inputPassword"
	LoginSubmit     = Cy("login")
	LoginError      = Cy("loginError")
	LogoutButton    = Cy("signOutButton")
	RegisterFirst   = "#firstName"
	RegisterLast    = "#lastName"
	RegisterEmail   = "#email"
	RegisterPass    = "#password"
	RegisterConfirm = "#password_confirmation"
	RegisterSubmit  = Cy("createAccountBtn")
)

// Skills table and catalog export.
var (
	SkillsTable       = Cy("skillsTable")
	SkillActionsBtn   = Cy("skillActionsBtn")
	ExportToCatalog   = Cy("skillExportToCatalogBtn")
	ExportConfirm     = Cy("exportToCatalogButton")
	AnyExportedBadge  = CyPrefix("exportedBadge-")
	AnyImportedBadge  = CyPrefix("importedBadge-")
	SkillSelectAll    = Cy("selectAllSkillsBtn")
	ExportedSkillsRow = Cy("exportedSkillsTable")
)

// ExportedBadge marks a skill shared to the catalog.
func ExportedBadge(skillID string) string { return Cy("exportedBadge-" + skillID) }

// ImportedBadge marks a skill imported from the catalog.
func ImportedBadge(skillID string) string { return Cy("importedBadge-" + skillID) }

// SkillSelect is the row checkbox of a skill.
func SkillSelect(skillID string) string { return Cy("skillSelect-" + skillID) }

// SkillRow selects the table row that manages a skill.
func SkillRow(projectID, skillID string) string {
	return Cy(fmt.Sprintf("manageSkillLink_%s_%s", projectID, skillID))
}

// Quiz definition editor.
var (
	NewQuestionBtn     = Cy("btn_Questions")
	QuestionText       = Cy("questionText")
	AnswerTypeSelector = Cy("answerTypeSelector")
	AddAnswerBtn       = Cy("addNewAnswer")
	QuestionSaveBtn    = Cy("saveDialogBtn")
	AnswerError        = Cy("answersError")
)

// AnswerInput is the text input of answer n (0-based).
func AnswerInput(n int) string { return Cy(fmt.Sprintf("answer-%d", n)) + " input" }

// RemoveAnswer removes answer n (0-based).
func RemoveAnswer(n int) string { return Cy(fmt.Sprintf("answer-%d", n)) + " " + Cy("removeAnswer") }

// Subject cards on the project page.
var (
	SubjectCards      = CyPrefix("subjectCard-")
	SubjectCardTitles = Within(CyPrefix("subjectCard-"), Cy("titleLink"))
)

// SubjectCard is the card of one subject.
func SubjectCard(subjectID string) string { return Cy("subjectCard-" + subjectID) }

// SubjectSortHandle is the drag handle of a subject card.
func SubjectSortHandle(subjectID string) string {
	return Within(SubjectCard(subjectID), SortControl)
}

// Slide viewer.
var (
	SlidesContainer = Cy("slidesContainer")
	PrevSlideBtn    = Cy("prevSlideBtn")
	NextSlideBtn    = Cy("nextSlideBtn")
	CurrentSlide    = Cy("currentSlideMsg")
	SlideTextLayer  = ".textLayer"
	DownloadSlides  = Cy("downloadPdfBtn")
)

// Client display navigation.
var (
	CDSubjectTile = Cy("subjectTileBtn")
	CDSkillTitle  = Cy("skillProgressTitle")
	CDBadgesBtn   = Cy("myBadgesBtn")
	CDRankBtn     = Cy("myRankBtn")
	CDBack        = Cy("back")
	CDTitle       = Cy("skillsTitle")
)

// CDSkillProgress is skill tile i of a subject page.
func CDSkillProgress(i int) string {
	return Cy(fmt.Sprintf("skillProgress_index-%d", i))
}
