package schedule

// Building is a campus building as reported by the schedule server.
type Building struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

type Location struct {
	Building Building `json:"building"`
	Room     string   `json:"room"`
}

// MeetingTime is one recurring meeting slot of a course. Times and dates are
// kept in the server's string form.
type MeetingTime struct {
	BeginTime string   `json:"begin_time"`
	EndTime   string   `json:"end_time"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Location  Location `json:"location"`
	Monday    bool     `json:"monday"`
	Tuesday   bool     `json:"tuesday"`
	Wednesday bool     `json:"wednesday"`
	Thursday  bool     `json:"thursday"`
	Friday    bool     `json:"friday"`
	Saturday  bool     `json:"saturday"`
	Sunday    bool     `json:"sunday"`
}

// Days returns the short names of the weekdays the slot meets on, Monday
// first.
func (m MeetingTime) Days() []string {
	var days []string
	for _, d := range []struct {
		on   bool
		name string
	}{
		{m.Monday, "Mon"},
		{m.Tuesday, "Tue"},
		{m.Wednesday, "Wed"},
		{m.Thursday, "Thu"},
		{m.Friday, "Fri"},
		{m.Saturday, "Sat"},
		{m.Sunday, "Sun"},
	} {
		if d.on {
			days = append(days, d.name)
		}
	}
	return days
}

type Professor struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	RMPID     string `json:"rmp_id,omitempty"`
}

// FullName returns "First Last", or whichever part is present.
func (p Professor) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

type Term struct {
	UID    int    `json:"uid"`
	Season string `json:"season"`
	Year   int    `json:"year"`
}

type Course struct {
	Title        string        `json:"title"`
	CourseNumber int           `json:"course_number"`
	ScheduleType string        `json:"schedule_type"`
	Term         Term          `json:"term"`
	Professor    Professor     `json:"professor"`
	MeetingTimes []MeetingTime `json:"meeting_times"`
}

// ResponseData is the processed schedule for one term.
type ResponseData struct {
	ICSURL  string   `json:"ics_url"`
	Classes []Course `json:"classes"`
}

// TermData is one entry of the processed data list.
type TermData struct {
	TermID       string       `json:"termId"`
	ResponseData ResponseData `json:"responseData"`
}

// UserSettings is the user's preference document. The server owns its shape,
// so it is kept as a generic JSON object.
type UserSettings map[string]any

// RMPRating is a single RateMyProfessors review.
type RMPRating struct {
	ID                  string  `json:"id"`
	Date                string  `json:"date"`
	Class               string  `json:"class"`
	Grade               string  `json:"grade"`
	Comment             string  `json:"comment"`
	LegacyID            int     `json:"legacyId"`
	RatingTags          string  `json:"ratingTags"`
	IsForCredit         bool    `json:"isForCredit"`
	ClarityRating       float64 `json:"clarityRating"`
	HelpfulRating       float64 `json:"helpfulRating"`
	ThumbsUpTotal       int     `json:"thumbsUpTotal"`
	WouldTakeAgain      float64 `json:"wouldTakeAgain"`
	ThumbsDownTotal     int     `json:"thumbsDownTotal"`
	DifficultyRating    float64 `json:"difficultyRating"`
	IsForOnlineClass    bool    `json:"isForOnlineClass"`
	AttendanceMandatory string  `json:"attendanceMandatory"`
}

// RMPResponse is the professor summary returned by the ratings endpoint.
type RMPResponse struct {
	FacultyName           string      `json:"faculty_name"`
	Email                 string      `json:"email"`
	RMPID                 string      `json:"rmp_id"`
	AvgRating             float64     `json:"avg_rating"`
	AvgDifficulty         float64     `json:"avg_difficulty"`
	NumRatings            int         `json:"num_ratings"`
	WouldTakeAgainPercent float64     `json:"would_take_again_percent"`
	RMPRatings            []RMPRating `json:"rmp_ratings"`
}
