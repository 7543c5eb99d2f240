package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/models"
)

var stderr io.Writer = os.Stderr

func printList(out io.Writer, snapshot dto.ListSnapshot) {
	for _, region := range []dto.CommunityRegion{snapshot.Joined, snapshot.Recommended, snapshot.All} {
		fmt.Fprintf(out, "== %s (%s)\n", region.Name, region.State)
		if region.State == dto.StateError {
			fmt.Fprintf(out, "   %s\n", region.Error)
			continue
		}
		for _, community := range region.Communities {
			printCommunity(out, community)
		}
	}

	fmt.Fprintf(out, "== %s (%s)\n", dto.RegionSimilar, snapshot.Similar.State)
	if snapshot.Similar.State == dto.StateError {
		fmt.Fprintf(out, "   %s\n", snapshot.Similar.Error)
		return
	}
	for _, similar := range snapshot.Similar.Users {
		fmt.Fprintf(out, "   %-24s %%%d\n", similar.User.Name, similar.Percent())
	}
}

func printCommunity(out io.Writer, community models.Community) {
	marker := " "
	if community.IsMember {
		marker = "*"
	}
	fmt.Fprintf(out, " %s #%-4d %-28s %-10s %d/%d  %%%d\n",
		marker, community.ID, community.Name, community.Category.Label(),
		community.MemberCount, community.MaxMembers, community.CompatibilityPercent())
}

func printDetail(out io.Writer, snapshot dto.DetailSnapshot) {
	community := snapshot.Community
	if community == nil {
		fmt.Fprintln(out, "community not loaded")
		return
	}
	if snapshot.Degraded {
		fmt.Fprintln(out, "(community could not be loaded, showing sample data)")
	}
	fmt.Fprintf(out, "%s [%s]\n%s\n", community.Name, community.Category.Label(), community.Description)
	if len(community.Tags) > 0 {
		fmt.Fprintf(out, "tags: %s\n", strings.Join(community.Tags, ", "))
	}

	stats := snapshot.Stats
	fmt.Fprintf(out, "active members: %d  avg compatibility: %%%d  activities this week: %d  response time: %.1f sa\n",
		stats.ActiveMembers, stats.AvgCompatibility, stats.ActivitiesThisWeek, stats.ResponseTimeHours)

	fmt.Fprintf(out, "\nmembers (%d)\n", len(snapshot.Members))
	for _, member := range snapshot.Members {
		status := "offline"
		if member.IsOnline {
			status = "online"
		}
		fmt.Fprintf(out, "  %-24s %-10s %-24s %s\n", member.Name, member.Role, member.Department, status)
	}

	fmt.Fprintf(out, "\nchat (%d)\n", len(snapshot.Chat))
	for _, msg := range snapshot.Chat {
		fmt.Fprintf(out, "  %s: %s\n", msg.UserName, msg.Content)
	}

	fmt.Fprintf(out, "\nactivity (%d)\n", len(snapshot.Activities))
	for _, activity := range snapshot.Activities {
		fmt.Fprintf(out, "  %s %s %s\n", activity.Timestamp.Format("02.01.2006"), activity.UserName, activity.Content)
	}
}
