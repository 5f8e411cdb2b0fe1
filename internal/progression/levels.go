package progression

// LevelThreshold is the number of points at which a level begins.
type LevelThreshold struct {
	Level  int    `json:"level"`
	Points int    `json:"points"`
	Title  string `json:"title"`
}

// DefaultLevels is the level table used by the service.
var DefaultLevels = []LevelThreshold{
	{Level: 1, Points: 0, Title: "Novice"},
	{Level: 2, Points: 30, Title: "Beginner"},
	{Level: 3, Points: 75, Title: "Enthusiast"},
	{Level: 4, Points: 150, Title: "Hobbyist"},
	{Level: 5, Points: 250, Title: "Expert"},
	{Level: 6, Points: 400, Title: "Master"},
	{Level: 7, Points: 600, Title: "Grandmaster"},
	{Level: 8, Points: 850, Title: "Legend"},
	{Level: 9, Points: 1200, Title: "Champion"},
	{Level: 10, Points: 1600, Title: "Board Game Guru"},
}
