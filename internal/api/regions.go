package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aptsurge/server/config"
)

type regionView struct {
	config.Region
	District string `json:"district"`
}

// ListRegions returns the supported regions with their district group, in display order
func (h *Handler) ListRegions(c *gin.Context) {
	sido := c.Query("sido")

	regions := []regionView{}
	for _, s := range config.SidoOrder {
		if sido != "" && s != sido {
			continue
		}
		for _, r := range config.Regions {
			if r.Sido != s {
				continue
			}
			regions = append(regions, regionView{Region: r, District: config.DistrictGroup(r.Sido, r.Name)})
		}
	}

	if sido != "" && len(regions) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Province not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sido_order": config.SidoOrder,
		"regions":    regions,
	})
}
