package cache

import "fmt"

const KeyRoutes = "routes"

func KeyRouteBuses(routeID string) string {
	return fmt.Sprintf("roster:%s", routeID)
}
